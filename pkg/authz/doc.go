// Package authz makes the per-request authorization decision: it verifies
// the bearer token, stores the caller's permission set as request-scoped
// state, and compares that set against the requirement declared by the
// target endpoint.
//
// The decision is an intersection check with OR semantics: access is
// allowed iff at least one required permission appears in the caller's set.
// Requirements are declared either per route with RequireAny (the chi
// registrations form the declarative table) or centrally with a
// Requirements map enforced by Guard, which forbids undeclared routes by
// default.
//
// Middleware tolerates absent tokens because some endpoints are public;
// the guards make the final allow/forbid call. Invalid or expired tokens
// are rejected immediately with an unauthenticated error.
package authz
