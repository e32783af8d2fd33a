// Package directory manages the per-tenant authorization catalog: domains,
// permissions, roles, grants and assignments. All storage access goes
// through the schema-bound connection router, so the same code serves every
// tenant schema including the control schema.
package directory
