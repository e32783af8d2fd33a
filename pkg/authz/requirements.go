package authz

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/authzkit/pkg/apierr"
)

// Requirements is a declarative route -> required-permission-set table.
// Keys are "METHOD /path/prefix"; the longest matching prefix for the
// request's method wins. An entry with an empty set declares the route
// public; a route with no matching entry is refused (fail closed).
type Requirements map[string][]string

// RequiredFor returns the permission set declared for a request, or
// ErrNoRequirement when no entry matches.
func (reqs Requirements) RequiredFor(method, path string) ([]string, error) {
	var (
		best    string
		perms   []string
		matched bool
	)

	for key, set := range reqs {
		m, prefix, ok := strings.Cut(key, " ")
		if !ok || m != method {
			continue
		}
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if !matched || len(prefix) > len(best) {
			best = prefix
			perms = set
			matched = true
		}
	}

	if !matched {
		return nil, ErrNoRequirement
	}
	return perms, nil
}

// Guard enforces a Requirements table for every request passing through
// it. Routes absent from the table are forbidden by default, so adding an
// endpoint without declaring its requirement fails closed instead of
// silently exposing it.
func Guard(reqs Requirements) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			required, err := reqs.RequiredFor(r.Method, r.URL.Path)
			if err != nil {
				apierr.Respond(w, apierr.Forbidden("no access rule for route", err))
				return
			}

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
