// Package redis provides connection bootstrap and health checking for the
// optional Redis-backed tenant cache.
package redis
