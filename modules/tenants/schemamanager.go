package tenants

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authzkit/pkg/pg"
)

// pgSchemaManager is the production SchemaManager: DDL and migrations go
// through pkg/pg, seeding runs in one transaction pinned to the target
// schema with SET LOCAL so a failure leaves no partial catalog behind.
type pgSchemaManager struct {
	pool       *pgxpool.Pool
	migrations fs.FS
	log        *slog.Logger
}

// NewSchemaManager wires the postgres-backed schema manager over the shared
// pool. fsys is the tenant migration set applied to every new schema.
func NewSchemaManager(pool *pgxpool.Pool, fsys fs.FS, log *slog.Logger) SchemaManager {
	return &pgSchemaManager{pool: pool, migrations: fsys, log: log}
}

func (m *pgSchemaManager) Create(ctx context.Context, schema string) error {
	return pg.CreateSchema(ctx, m.pool, schema)
}

func (m *pgSchemaManager) Drop(ctx context.Context, schema string) error {
	return pg.DropSchema(ctx, m.pool, schema)
}

func (m *pgSchemaManager) Migrate(ctx context.Context, schema string) error {
	return pg.MigrateSchema(ctx, m.pool, schema, m.migrations, m.log)
}

// Seed inserts the requested domains and permissions into the freshly
// migrated schema. All inserts share one transaction whose search_path is
// pinned with SET LOCAL, so the seed is all-or-nothing and cannot touch any
// other schema.
func (m *pgSchemaManager) Seed(ctx context.Context, schema string, domains []SeedDomain) error {
	if len(domains) == 0 {
		return nil
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return err
	}

	for _, d := range domains {
		var domainID string
		err := tx.QueryRow(ctx,
			"INSERT INTO domains (id, name, description) VALUES (gen_random_uuid(), $1, $2) RETURNING id",
			d.Name, d.Description).Scan(&domainID)
		if err != nil {
			return err
		}

		for _, perm := range d.Permissions {
			_, err := tx.Exec(ctx,
				"INSERT INTO permissions (id, name, description, action, domain_id) VALUES (gen_random_uuid(), $1, $2, $3, $4)",
				perm.Name, perm.Description, perm.Action, domainID)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
