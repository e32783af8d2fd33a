package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/apierr"
)

// HeaderTenantID is the header carrying the tenant's opaque identifier.
const HeaderTenantID = "X-Tenant-Id"

// TokenInfo is the minimal view of a verified bearer token the router needs
// to route requests that rely on prior authentication context.
type TokenInfo struct {
	Superuser bool
	TenantID  uuid.UUID
}

// TokenInspector reports the verified token carried by the request, if any.
// Inspection must be pure: a failed verification is reported as absence,
// the authorization middleware deals with rejection later.
type TokenInspector func(r *http.Request) (TokenInfo, bool)

// Router creates the tenant-routing middleware. For every request it
// decides which schema to bind, in strict rule order:
//
//  1. whitelisted path prefixes (health, docs, tenant registration) bind
//     the public schema;
//  2. the superuser auth prefix binds the control-plane schema;
//  3. the tenant auth prefix requires the tenant header and resolves it
//     through the registry;
//  4. a verified superuser token makes the header optional: resolve when
//     present, stay on the control-plane schema otherwise;
//  5. otherwise the tenant must come from the verified token's claims.
//
// Any resolution failure ends the request with a Forbidden-class error.
// The binding lives only in the per-request context, so it can never leak
// into another request.
func Router(registry Registry, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultRouterConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			for _, prefix := range cfg.publicPrefixes {
				if pathHasPrefix(path, prefix) {
					next.ServeHTTP(w, r.WithContext(WithSchema(r.Context(), DefaultSchema)))
					return
				}
			}

			if pathHasPrefix(path, cfg.superuserAuthPrefix) {
				next.ServeHTTP(w, r.WithContext(WithSchema(r.Context(), ControlSchema)))
				return
			}

			if pathHasPrefix(path, cfg.tenantAuthPrefix) {
				identifier := r.Header.Get(cfg.header)
				if identifier == "" {
					cfg.errorHandler(w, r, ErrMissingIdentifier)
					return
				}
				cfg.bind(w, r, next, registry, identifier)
				return
			}

			var info TokenInfo
			var authenticated bool
			if cfg.inspector != nil {
				info, authenticated = cfg.inspector(r)
			}

			if authenticated && info.Superuser {
				if identifier := r.Header.Get(cfg.header); identifier != "" {
					cfg.bind(w, r, next, registry, identifier)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithSchema(r.Context(), ControlSchema)))
				return
			}

			if authenticated && info.TenantID != uuid.Nil {
				cfg.bind(w, r, next, registry, info.TenantID.String())
				return
			}

			cfg.errorHandler(w, r, ErrUnroutable)
		})
	}
}

// pathHasPrefix matches on path-segment boundaries: "/auth" covers "/auth"
// and "/auth/login" but never "/authors".
func pathHasPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// bind resolves the identifier and runs the next handler under the
// tenant's schema.
func (cfg *routerConfig) bind(w http.ResponseWriter, r *http.Request, next http.Handler, registry Registry, identifier string) {
	t, err := cfg.resolve(r.Context(), registry, identifier)
	if err != nil {
		cfg.errorHandler(w, r, err)
		return
	}

	ctx := WithTenant(WithSchema(r.Context(), t.Schema), t)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (cfg *routerConfig) resolve(ctx context.Context, registry Registry, identifier string) (*Tenant, error) {
	id, err := uuid.Parse(identifier)
	if err != nil {
		return nil, ErrInvalidIdentifier
	}

	t, cached := cfg.cache.Get(ctx, identifier)
	if !cached {
		t, err = registry.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		cfg.cache.Set(ctx, identifier, t, cfg.cacheTTL)
	}

	if !cfg.allowRetired && !t.Active() {
		return nil, ErrRetiredTenant
	}
	return t, nil
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	// Every routing failure is a refusal to serve, not a lookup miss: a 404
	// would reveal which tenant ids exist.
	apierr.Respond(w, apierr.Forbidden("tenant routing failed", err))
}
