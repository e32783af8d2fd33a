package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// VersionTable is where goose records applied versions. It is unqualified
// on purpose: the migration session's search_path points at the target
// schema, so every tenant schema gets its own copy.
const VersionTable = "schema_migrations"

// goose configuration is package-global upstream; serialize access so two
// tenants can't be provisioned with interleaved settings.
var gooseMu sync.Mutex

// MigrateSchema applies the versioned migration set in fsys to exactly one
// schema. A dedicated database/sql session is opened with its search_path
// pinned to the schema, so both the created tables and the version table
// land there and never bleed into public.
func MigrateSchema(ctx context.Context, pool *pgxpool.Pool, schema string, fsys fs.FS, log logger) error {
	return MigrateSchemaTable(ctx, pool, schema, VersionTable, fsys, log)
}

// MigrateSchemaTable is MigrateSchema with an explicit version table name.
// Needed when two independent migration streams target the same schema (the
// control schema carries both the registry set and the tenant set).
func MigrateSchemaTable(ctx context.Context, pool *pgxpool.Pool, schema, table string, fsys fs.FS, log logger) error {
	if !validIdent(schema) {
		return errors.Join(ErrFailedToApplyMigrations, ErrInvalidSchemaName)
	}
	if !validIdent(table) {
		return errors.Join(ErrFailedToApplyMigrations, fmt.Errorf("invalid version table name %q", table))
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(newSlogAdapter(log))
	goose.SetTableName(table)

	// The goose dialect follows the vendor recorded on the context; the
	// default is postgres.
	if err := goose.SetDialect(tenant.VendorFromContext(ctx)); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	connCfg := pool.Config().ConnConfig.Copy()
	connCfg.RuntimeParams["search_path"] = schema

	db := stdlib.OpenDB(*connCfg)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration session", "error", err)
		}
	}(db)

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// migrateSlogAdapter bridges goose's Printf-style logging to slog.
type migrateSlogAdapter struct {
	log logger
}

func newSlogAdapter(log logger) goose.Logger {
	return &migrateSlogAdapter{log: log}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
