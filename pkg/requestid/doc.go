// Package requestid propagates a correlation id through the request
// context, response headers and structured logs.
package requestid
