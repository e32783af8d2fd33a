package pg_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/pg"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

func TestSchemaNameValidation(t *testing.T) {
	t.Parallel()

	// Invalid names must be rejected before any database work, so a nil
	// pool is safe here.
	bad := []string{
		"",
		"Tenant",
		"1tenant",
		"acme corp",
		"acme;drop",
		"acme-corp",
	}

	for _, name := range bad {
		require.ErrorIs(t, pg.CreateSchema(context.Background(), nil, name), pg.ErrInvalidSchemaName, "name %q", name)
		require.ErrorIs(t, pg.DropSchema(context.Background(), nil, name), pg.ErrInvalidSchemaName, "name %q", name)
	}
}

func TestMigrateRejectsInvalidIdentifiers(t *testing.T) {
	t.Parallel()

	err := pg.MigrateSchema(context.Background(), nil, "Bad Schema", nil, nil)
	require.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
	require.ErrorIs(t, err, pg.ErrInvalidSchemaName)

	err = pg.MigrateSchemaTable(context.Background(), nil, "tenant_ok", "bad table", nil, nil)
	require.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
}

func TestMigrateDialectFollowsVendorContext(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A vendor goose does not know fails dialect selection before any
	// database session is opened, so a nil pool is safe.
	ctx := tenant.WithVendor(context.Background(), "not-a-database")
	err := pg.MigrateSchemaTable(ctx, nil, "tenant_ok", "schema_migrations", nil, log)
	require.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
	require.ErrorContains(t, err, "unknown dialect")
}
