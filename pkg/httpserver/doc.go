// Package httpserver wraps net/http.Server with graceful shutdown on
// SIGINT/SIGTERM or context cancellation, env-driven configuration, and a
// probe handler for liveness/readiness endpoints.
package httpserver
