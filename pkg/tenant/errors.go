package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when the identifier format is invalid.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrMissingIdentifier is returned when a required tenant header is absent.
	ErrMissingIdentifier = errors.New("missing tenant identifier")

	// ErrRetiredTenant is returned when routing resolves to a retired tenant.
	ErrRetiredTenant = errors.New("tenant is retired")

	// ErrUnroutable is returned when no routing rule could establish a tenant.
	ErrUnroutable = errors.New("unable to establish tenant for request")
)
