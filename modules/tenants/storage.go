package tenants

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authzkit/pkg/pg"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// Storage is the pgx-backed tenant registry living in the control schema.
// Table references are schema-qualified so reads work no matter which schema
// the request context bound, including none at all.
type Storage struct {
	pool  *pgxpool.Pool
	table string
}

// NewStorage creates registry storage over the shared pool.
func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{
		pool:  pool,
		table: tenant.ControlSchema + ".tenants",
	}
}

var _ tenant.Registry = (*Storage)(nil)

const tenantColumns = "id, name, description, schema_name, status, date_created, date_updated"

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Schema, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByID retrieves a tenant descriptor by its identifier.
func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM "+s.table+" WHERE id = $1", id)
	return scanTenant(row)
}

// GetByName retrieves a tenant descriptor by its unique name.
func (s *Storage) GetByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM "+s.table+" WHERE name = $1", name)
	return scanTenant(row)
}

// GetBySchema retrieves a tenant descriptor by its unique schema name.
// Distinct tenant names can derive the same schema, so provisioning checks
// this key before touching any schema on disk.
func (s *Storage) GetBySchema(ctx context.Context, schema string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM "+s.table+" WHERE schema_name = $1", schema)
	return scanTenant(row)
}

// Create inserts a registry row. A duplicate name or schema surfaces the
// raw constraint violation so callers can decide between conflict and
// lost-race idempotency.
func (s *Storage) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO "+s.table+" (id, name, description, schema_name, status, date_created, date_updated) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		t.ID, t.Name, t.Description, t.Schema, t.Status, t.CreatedAt, t.UpdatedAt)
	return err
}

// Delete removes a registry row. Deleting an unknown id reports
// tenant.ErrTenantNotFound.
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+s.table+" WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// List returns all registered tenants ordered by creation time.
func (s *Storage) List(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+tenantColumns+" FROM "+s.table+" ORDER BY date_created")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Schema, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus flips a tenant between active and retired without touching its
// schema. Retired tenants stop routing but keep their data.
func (s *Storage) SetStatus(ctx context.Context, id uuid.UUID, status tenant.Status) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE "+s.table+" SET status = $2, date_updated = now() WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
