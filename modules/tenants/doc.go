// Package tenants owns the tenant lifecycle: the registry stored in the
// control schema, the schema provisioner that builds an isolated schema per
// tenant, and the HTTP surface for registration and retirement.
package tenants
