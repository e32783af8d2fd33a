package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authzkit/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
		assert.True(t, pg.IsNotFoundError(fmt.Errorf("query: %w", pgx.ErrNoRows)))
		assert.False(t, pg.IsNotFoundError(errors.New("other")))
		assert.False(t, pg.IsNotFoundError(nil))
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()

		dup := &pgconn.PgError{Code: "23505"}
		assert.True(t, pg.IsDuplicateKeyError(dup))
		assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", dup)))
		assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
		assert.False(t, pg.IsDuplicateKeyError(nil))
	})

	t.Run("foreign key violation", func(t *testing.T) {
		t.Parallel()

		fk := &pgconn.PgError{Code: "23503"}
		assert.True(t, pg.IsForeignKeyViolationError(fk))
		assert.False(t, pg.IsForeignKeyViolationError(&pgconn.PgError{Code: "23505"}))
	})

	t.Run("undefined object", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsUndefinedObjectError(&pgconn.PgError{Code: "3F000"}))
		assert.True(t, pg.IsUndefinedObjectError(&pgconn.PgError{Code: "42P01"}))
		assert.False(t, pg.IsUndefinedObjectError(&pgconn.PgError{Code: "23505"}))
	})
}
