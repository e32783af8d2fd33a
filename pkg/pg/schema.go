package pg

import (
	"context"
	"errors"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// identPattern accepts unquoted PostgreSQL identifiers only. Schema names
// are derived server-side, so anything else indicates a bug, not input.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

func validIdent(name string) bool {
	return identPattern.MatchString(name)
}

// Router hands out pooled connections already pointed at the schema bound
// to the request context, and guarantees a released connection points back
// at the public schema before the pool can lend it to anyone else.
type Router struct {
	pool *pgxpool.Pool
}

// NewRouter creates a connection router on top of the shared pool.
func NewRouter(pool *pgxpool.Pool) *Router {
	return &Router{pool: pool}
}

// Acquire checks out a connection and binds it to the schema from ctx via
// search_path. If the switch fails the connection is returned untouched and
// the database error surfaces: handing out a connection bound to the wrong
// schema is never an option.
func (rt *Router) Acquire(ctx context.Context) (*SchemaConn, error) {
	schema := tenant.SchemaFromContext(ctx)
	if !validIdent(schema) {
		return nil, ErrInvalidSchemaName
	}

	conn, err := rt.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	setPath := "SET search_path TO " + pgx.Identifier{schema}.Sanitize() + ", public"
	if _, err := conn.Exec(ctx, setPath); err != nil {
		conn.Release()
		return nil, errors.Join(ErrSchemaSwitchFailed, err)
	}

	return &SchemaConn{conn: conn, schema: schema}, nil
}

// Pool exposes the underlying pool for operations that must not go through
// schema binding (healthchecks, control-plane DDL).
func (rt *Router) Pool() *pgxpool.Pool {
	return rt.pool
}

// SchemaConn is a pooled connection bound to one tenant schema for the
// duration of a checkout.
type SchemaConn struct {
	conn     *pgxpool.Conn
	schema   string
	released bool
}

// Schema returns the schema this connection is bound to.
func (c *SchemaConn) Schema() string { return c.schema }

func (c *SchemaConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *SchemaConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *SchemaConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *SchemaConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.conn.Begin(ctx)
}

// Release resets search_path to the public schema and returns the
// connection to the pool. A connection that cannot be reset is closed
// instead of returned, so the next borrower can never observe a stale
// schema binding. Safe to call more than once.
func (c *SchemaConn) Release(ctx context.Context) {
	if c.released {
		return
	}
	c.released = true

	if _, err := c.conn.Exec(ctx, "SET search_path TO public"); err != nil {
		// Closing the underlying connection makes the pool discard it.
		_ = c.conn.Conn().Close(ctx)
	}
	c.conn.Release()
}

// CreateSchema creates the named schema if it does not exist.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !validIdent(schema) {
		return ErrInvalidSchemaName
	}
	_, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize())
	return err
}

// DropSchema drops the named schema with everything in it. Dropping a
// schema that does not exist is a no-op, which makes cleanup idempotent.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !validIdent(schema) {
		return ErrInvalidSchemaName
	}
	_, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
	return err
}
