// Package pg is the database layer: pgx/v5 connection pooling, error
// classification helpers, per-schema migrations via goose/v3, and the
// connection router that binds pooled connections to tenant schemas.
//
// # Connection routing
//
// Router.Acquire checks out a pooled connection and sets its search_path
// to the schema bound in the request context; SchemaConn.Release resets it
// to public before the connection returns to the pool. The reset is
// unconditional: a connection that cannot be reset is closed rather than
// recycled, so no borrower ever inherits another tenant's binding.
//
// # Schema lifecycle
//
// CreateSchema/DropSchema implement the idempotent DDL used by tenant
// provisioning, and MigrateSchema applies an embedded goose migration set
// to exactly one schema, keeping a schema-local version table.
//
// # Error classification
//
// IsDuplicateKeyError, IsForeignKeyViolationError, IsNotFoundError and
// IsUndefinedObjectError unwrap *pgconn.PgError values so business logic
// can map database failures onto the API error taxonomy without touching
// SQLSTATE codes.
package pg
