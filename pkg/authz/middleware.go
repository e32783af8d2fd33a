package authz

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authzkit/pkg/apierr"
	"github.com/dmitrymomot/authzkit/pkg/authtoken"
)

// Verifier validates a raw bearer token and returns its claims.
type Verifier interface {
	Verify(raw string) (authtoken.Claims, error)
}

// Middleware verifies the bearer token, if any, and stores its claims in
// the request context. A missing token is tolerated: some endpoints are
// intentionally public and the per-route guards make the final decision.
// An invalid or expired token always terminates the request: a caller who
// presents a credential must present a valid one.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := authtoken.FromRequest(r)
			if err != nil {
				if errors.Is(err, authtoken.ErrNoToken) {
					next.ServeHTTP(w, r)
					return
				}
				apierr.Respond(w, apierr.Unauthenticated("invalid authorization header", err))
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				apierr.Respond(w, apierr.Unauthenticated("invalid or expired token", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAny guards a route with a required permission set. Access is
// allowed iff the caller's set intersects the requirement (OR semantics).
// An empty requirement declares the route public. Requests without verified
// claims are refused on any non-empty requirement.
func RequireAny(required ...string) func(http.Handler) http.Handler {
	required = Normalize(required)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apierr.Respond(w, apierr.Forbidden("authentication required", ErrNotAuthenticated))
				return
			}

			if !HasAny(claims.Permissions, required) {
				apierr.Respond(w, apierr.Forbidden("insufficient permissions", ErrInsufficientPermissions))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
