package authz

import "errors"

var (
	// ErrInsufficientPermissions is returned when the caller's permission
	// set does not intersect the endpoint's requirement.
	ErrInsufficientPermissions = errors.New("authz: insufficient permissions")

	// ErrNotAuthenticated is returned when a guarded endpoint is reached
	// without verified claims.
	ErrNotAuthenticated = errors.New("authz: request is not authenticated")

	// ErrNoRequirement is returned by table lookups for routes with no
	// declared requirement.
	ErrNoRequirement = errors.New("authz: no requirement declared for route")
)
