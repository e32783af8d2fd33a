package tenants

import "errors"

var (
	// ErrEmptyTenantName is returned when registration carries no usable name.
	ErrEmptyTenantName = errors.New("tenant name must not be empty")

	// ErrReservedName is returned when the derived schema would collide with
	// a schema the service itself depends on.
	ErrReservedName = errors.New("tenant name maps to a reserved schema")

	// ErrInvalidSeed is returned when the seed payload fails validation.
	ErrInvalidSeed = errors.New("invalid seed data")

	// ErrSchemaCollision is returned when the derived schema name already
	// belongs to a tenant registered under a different name.
	ErrSchemaCollision = errors.New("tenant name collides with an existing tenant's schema")

	// ErrProvisionFailed wraps any failure between schema creation and
	// registry insert; the schema has already been cleaned up by then.
	ErrProvisionFailed = errors.New("tenant provisioning failed")
)
