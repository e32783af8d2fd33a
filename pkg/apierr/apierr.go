package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifies an error into a stable, user-visible category.
// The string value is part of the API contract and must not change.
type Kind string

const (
	KindClient          Kind = "client_error"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindInternal        Kind = "internal_error"
)

// Error is a classified error carrying an HTTP status, a stable code and a
// user-facing message. The wrapped cause is preserved for logging but never
// serialized into responses.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

// Unwrap exposes the original cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindClient:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Client reports invalid caller input.
func Client(message string, cause error) *Error {
	return newError(KindClient, message, cause)
}

// Conflict reports a uniqueness violation (duplicate name, duplicate pair).
func Conflict(message string, cause error) *Error {
	return newError(KindConflict, message, cause)
}

// NotFound reports an unknown resource identifier.
func NotFound(message string, cause error) *Error {
	return newError(KindNotFound, message, cause)
}

// Unauthenticated reports a missing, invalid or expired credential.
func Unauthenticated(message string, cause error) *Error {
	return newError(KindUnauthenticated, message, cause)
}

// Forbidden reports an authorization or tenant-routing refusal.
func Forbidden(message string, cause error) *Error {
	return newError(KindForbidden, message, cause)
}

// Internal reports a failure not attributable to caller input.
func Internal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// As extracts a classified error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// envelope is the wire format for error responses.
type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

// Respond writes err as a structured JSON response. Unclassified errors are
// rendered as internal errors with a generic message so that causes never
// leak to clients.
func Respond(w http.ResponseWriter, err error) {
	e, ok := As(err)
	if !ok {
		e = Internal("internal server error", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(envelope{Error: body{Code: e.Kind, Message: e.Message}})
}
