// Package tenant implements tenant descriptors, request-scoped schema
// binding, and the routing middleware that decides which database schema a
// request executes against.
//
// # Request-scoped binding
//
// The active schema, the resolved tenant descriptor, and the detected
// database vendor travel in the request context under private keys. Reads
// on an unbound context return safe defaults (the public schema, the
// default vendor) because startup probes and health checks legitimately run
// outside tenant routing. Because the binding lives in the request context
// and nowhere else, it dies with the request: a reused worker can never
// observe the previous request's tenant.
//
// # Routing
//
// Router is the middleware implementing the ordered routing rules: static
// whitelist to the public schema, superuser auth to the control-plane
// schema, tenant auth with a mandatory X-Tenant-Id header, and finally
// token-derived binding for authenticated traffic. Resolution goes through
// a pluggable Cache (in-memory TTL/LRU by default, Redis-backed for
// multi-instance deployments) in front of the durable Registry.
//
// # Schema names
//
// SchemaName deterministically derives a valid PostgreSQL identifier from a
// tenant name. The derived name is internal: API responses never expose it.
package tenant
