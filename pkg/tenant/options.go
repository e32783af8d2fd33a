package tenant

import (
	"net/http"
	"time"
)

// ErrorHandler handles errors that occur during tenant routing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// routerConfig holds middleware configuration.
type routerConfig struct {
	header              string
	publicPrefixes      []string
	superuserAuthPrefix string
	tenantAuthPrefix    string
	cache               Cache
	cacheTTL            time.Duration
	inspector           TokenInspector
	errorHandler        ErrorHandler
	allowRetired        bool
}

func defaultRouterConfig() *routerConfig {
	return &routerConfig{
		header:              HeaderTenantID,
		publicPrefixes:      []string{"/health", "/docs", "/tenants"},
		superuserAuthPrefix: "/su/auth",
		tenantAuthPrefix:    "/auth",
		cache:               NewInMemoryCache(),
		cacheTTL:            5 * time.Minute,
		errorHandler:        defaultErrorHandler,
	}
}

// Option configures the router middleware.
type Option func(*routerConfig)

// WithHeader overrides the tenant identifier header name.
func WithHeader(name string) Option {
	return func(c *routerConfig) {
		if name != "" {
			c.header = name
		}
	}
}

// WithPublicPrefixes sets path prefixes that always bind the public schema.
func WithPublicPrefixes(prefixes ...string) Option {
	return func(c *routerConfig) {
		c.publicPrefixes = prefixes
	}
}

// WithSuperuserAuthPrefix sets the path prefix that binds the control-plane
// schema regardless of the tenant header.
func WithSuperuserAuthPrefix(prefix string) Option {
	return func(c *routerConfig) {
		if prefix != "" {
			c.superuserAuthPrefix = prefix
		}
	}
}

// WithTenantAuthPrefix sets the path prefix on which the tenant header is
// mandatory.
func WithTenantAuthPrefix(prefix string) Option {
	return func(c *routerConfig) {
		if prefix != "" {
			c.tenantAuthPrefix = prefix
		}
	}
}

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) Option {
	return func(c *routerConfig) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithCacheTTL sets how long resolved descriptors stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *routerConfig) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithTokenInspector wires the verified-token peek used by routing rules
// that depend on prior authentication context.
func WithTokenInspector(inspector TokenInspector) Option {
	return func(c *routerConfig) {
		c.inspector = inspector
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *routerConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithAllowRetired lets retired tenants route. Off by default.
func WithAllowRetired(allow bool) Option {
	return func(c *routerConfig) {
		c.allowRetired = allow
	}
}
