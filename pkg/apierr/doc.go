// Package apierr defines the error taxonomy shared by all HTTP surfaces.
//
// Errors are classified into a small set of kinds (client, conflict, not
// found, unauthenticated, forbidden, internal) that map 1:1 to HTTP status
// codes and to a stable machine-readable code in the response envelope:
//
//	{"error": {"code": "conflict", "message": "role already assigned"}}
//
// The original cause is kept on the error for logging via errors.Unwrap but
// is never serialized to clients.
package apierr
