package authz

import (
	"context"

	"github.com/dmitrymomot/authzkit/pkg/authtoken"
)

type claimsKey struct{}

// WithClaims stores verified token claims in the request context. Set once
// by the middleware; like the tenant binding, it dies with the request.
func WithClaims(ctx context.Context, claims authtoken.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext retrieves the verified claims of the current request.
// Returns false for unauthenticated requests.
func ClaimsFromContext(ctx context.Context) (authtoken.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(authtoken.Claims)
	return claims, ok
}

// PermissionsFromContext returns the caller's permission set, or nil for
// unauthenticated requests.
func PermissionsFromContext(ctx context.Context) []string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	return claims.Permissions
}
