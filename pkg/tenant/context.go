package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Reserved schema names. DefaultSchema hosts nothing tenant-specific and is
// what every released connection points back to; ControlSchema holds the
// tenant registry and superuser accounts.
const (
	DefaultSchema = "public"
	ControlSchema = "authz_control"
)

// DefaultVendor is assumed until a live connection reports otherwise.
const DefaultVendor = "postgres"

type schemaKey struct{}
type vendorKey struct{}
type tenantKey struct{}

// WithSchema binds a schema name to the request context.
func WithSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, schemaKey{}, schema)
}

// SchemaFromContext returns the schema bound to the request. Requests that
// never went through routing (startup probes, health checks) get
// DefaultSchema rather than an error.
func SchemaFromContext(ctx context.Context) string {
	if schema, ok := ctx.Value(schemaKey{}).(string); ok && schema != "" {
		return schema
	}
	return DefaultSchema
}

// WithVendor records the detected database vendor in the request context.
func WithVendor(ctx context.Context, vendor string) context.Context {
	return context.WithValue(ctx, vendorKey{}, vendor)
}

// VendorFromContext returns the detected database vendor, defaulting to
// DefaultVendor when no connection has been acquired yet.
func VendorFromContext(ctx context.Context) string {
	if vendor, ok := ctx.Value(vendorKey{}).(string); ok && vendor != "" {
		return vendor
	}
	return DefaultVendor
}

// WithTenant adds the resolved tenant descriptor to the context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// FromContext retrieves the tenant from the context.
// Returns nil, false if no tenant is bound.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*Tenant)
	return t, ok && t != nil
}

// IDFromContext retrieves just the tenant ID from the context.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return t.ID, true
}

// MustFromContext retrieves the tenant from the context and panics if none
// is bound. Use only in handlers that cannot run without a tenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// LogExtractor returns a logger context extractor that reports the bound
// schema on every record.
func LogExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if schema, ok := ctx.Value(schemaKey{}).(string); ok && schema != "" {
			return slog.String("schema", schema), true
		}
		return slog.Attr{}, false
	}
}
