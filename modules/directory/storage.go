package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/authzkit/pkg/pg"
)

// Storage executes catalog queries through the schema-bound connection
// router. Every call borrows a connection already pointed at the tenant
// schema from the request context and returns it before the call ends.
type Storage struct {
	db *pg.Router
}

// NewStorage creates catalog storage over the connection router.
func NewStorage(db *pg.Router) *Storage {
	return &Storage{db: db}
}

// --- domains ---

func (s *Storage) CreateDomain(ctx context.Context, name, description string) (*Domain, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	d := &Domain{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	d.UpdatedAt = d.CreatedAt

	_, err = conn.Exec(ctx,
		"INSERT INTO domains (id, name, description, date_created, date_updated) VALUES ($1, $2, $3, $4, $5)",
		d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return d, nil
}

func (s *Storage) GetDomain(ctx context.Context, id uuid.UUID) (*Domain, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var d Domain
	err = conn.QueryRow(ctx,
		"SELECT id, name, description, date_created, date_updated FROM domains WHERE id = $1", id).
		Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *Storage) ListDomains(ctx context.Context) ([]Domain, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	rows, err := conn.Query(ctx,
		"SELECT id, name, description, date_created, date_updated FROM domains ORDER BY name")
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows, d *Domain) error {
		return row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	})
}

func (s *Storage) UpdateDomain(ctx context.Context, id uuid.UUID, name, description string) (*Domain, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var d Domain
	err = conn.QueryRow(ctx,
		"UPDATE domains SET name = $2, description = $3, date_updated = now() WHERE id = $1 RETURNING id, name, description, date_created, date_updated",
		id, name, description).
		Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		switch {
		case pg.IsNotFoundError(err):
			return nil, ErrDomainNotFound
		case pg.IsDuplicateKeyError(err):
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &d, nil
}

// DeleteDomain removes a domain and, through cascading constraints, its
// permissions and their grants.
func (s *Storage) DeleteDomain(ctx context.Context, id uuid.UUID) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	tag, err := conn.Exec(ctx, "DELETE FROM domains WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDomainNotFound
	}
	return nil
}

// --- permissions ---

func (s *Storage) CreatePermission(ctx context.Context, domainID uuid.UUID, name string, action Action, description string) (*Permission, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	p := &Permission{
		ID:          uuid.New(),
		DomainID:    domainID,
		Name:        name,
		Action:      action,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	p.UpdatedAt = p.CreatedAt

	_, err = conn.Exec(ctx,
		"INSERT INTO permissions (id, domain_id, name, action, description, date_created, date_updated) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		p.ID, p.DomainID, p.Name, p.Action, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return nil, ErrDuplicateName
		case pg.IsForeignKeyViolationError(err):
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Storage) GetPermission(ctx context.Context, id uuid.UUID) (*Permission, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var p Permission
	err = conn.QueryRow(ctx,
		"SELECT id, domain_id, name, action, description, date_created, date_updated FROM permissions WHERE id = $1", id).
		Scan(&p.ID, &p.DomainID, &p.Name, &p.Action, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Storage) ListPermissionsByDomain(ctx context.Context, domainID uuid.UUID) ([]Permission, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	rows, err := conn.Query(ctx,
		"SELECT id, domain_id, name, action, description, date_created, date_updated FROM permissions WHERE domain_id = $1 ORDER BY name", domainID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows, p *Permission) error {
		return row.Scan(&p.ID, &p.DomainID, &p.Name, &p.Action, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	})
}

func (s *Storage) UpdatePermission(ctx context.Context, id uuid.UUID, name string, action Action, description string) (*Permission, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var p Permission
	err = conn.QueryRow(ctx,
		"UPDATE permissions SET name = $2, action = $3, description = $4, date_updated = now() WHERE id = $1 RETURNING id, domain_id, name, action, description, date_created, date_updated",
		id, name, action, description).
		Scan(&p.ID, &p.DomainID, &p.Name, &p.Action, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		switch {
		case pg.IsNotFoundError(err):
			return nil, ErrPermissionNotFound
		case pg.IsDuplicateKeyError(err):
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &p, nil
}

func (s *Storage) DeletePermission(ctx context.Context, id uuid.UUID) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	tag, err := conn.Exec(ctx, "DELETE FROM permissions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPermissionNotFound
	}
	return nil
}

// --- roles ---

func (s *Storage) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	r := &Role{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	r.UpdatedAt = r.CreatedAt

	_, err = conn.Exec(ctx,
		"INSERT INTO roles (id, name, description, date_created, date_updated) VALUES ($1, $2, $3, $4, $5)",
		r.ID, r.Name, r.Description, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return r, nil
}

func (s *Storage) GetRole(ctx context.Context, id uuid.UUID) (*Role, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var r Role
	err = conn.QueryRow(ctx,
		"SELECT id, name, description, date_created, date_updated FROM roles WHERE id = $1", id).
		Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Storage) ListRoles(ctx context.Context) ([]Role, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	rows, err := conn.Query(ctx,
		"SELECT id, name, description, date_created, date_updated FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows, r *Role) error {
		return row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	})
}

func (s *Storage) UpdateRole(ctx context.Context, id uuid.UUID, name, description string) (*Role, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var r Role
	err = conn.QueryRow(ctx,
		"UPDATE roles SET name = $2, description = $3, date_updated = now() WHERE id = $1 RETURNING id, name, description, date_created, date_updated",
		id, name, description).
		Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		switch {
		case pg.IsNotFoundError(err):
			return nil, ErrRoleNotFound
		case pg.IsDuplicateKeyError(err):
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &r, nil
}

func (s *Storage) DeleteRole(ctx context.Context, id uuid.UUID) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	tag, err := conn.Exec(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// --- grants ---

func (s *Storage) CreateGrant(ctx context.Context, permissionID, roleID uuid.UUID) (*Grant, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	g := &Grant{
		ID:           uuid.New(),
		PermissionID: permissionID,
		RoleID:       roleID,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = conn.Exec(ctx,
		"INSERT INTO grants (id, permission_id, role_id, date_created) VALUES ($1, $2, $3, $4)",
		g.ID, g.PermissionID, g.RoleID, g.CreatedAt)
	if err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return nil, ErrDuplicateGrant
		case pg.IsForeignKeyViolationError(err):
			return nil, ErrUnknownReference
		}
		return nil, err
	}
	return g, nil
}

// DeleteGrant is idempotent: removing an already-removed grant succeeds.
func (s *Storage) DeleteGrant(ctx context.Context, id uuid.UUID) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	_, err = conn.Exec(ctx, "DELETE FROM grants WHERE id = $1", id)
	return err
}

func (s *Storage) ListGrantsByRole(ctx context.Context, roleID uuid.UUID) ([]Grant, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	rows, err := conn.Query(ctx,
		"SELECT id, permission_id, role_id, date_created FROM grants WHERE role_id = $1 ORDER BY date_created", roleID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows, g *Grant) error {
		return row.Scan(&g.ID, &g.PermissionID, &g.RoleID, &g.CreatedAt)
	})
}

// --- assignments ---

func (s *Storage) CreateAssignment(ctx context.Context, accountEmail string, roleID uuid.UUID) (*Assignment, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	a := &Assignment{
		ID:           uuid.New(),
		AccountEmail: accountEmail,
		RoleID:       roleID,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = conn.Exec(ctx,
		"INSERT INTO assignments (id, account_email, role_id, date_created) VALUES ($1, $2, $3, $4)",
		a.ID, a.AccountEmail, a.RoleID, a.CreatedAt)
	if err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return nil, ErrDuplicateAssignment
		case pg.IsForeignKeyViolationError(err):
			return nil, ErrUnknownReference
		}
		return nil, err
	}
	return a, nil
}

// DeleteAssignment is idempotent: removing an already-removed assignment
// succeeds.
func (s *Storage) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	_, err = conn.Exec(ctx, "DELETE FROM assignments WHERE id = $1", id)
	return err
}

func (s *Storage) ListAssignmentsByAccount(ctx context.Context, accountEmail string) ([]Assignment, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	rows, err := conn.Query(ctx,
		"SELECT id, account_email, role_id, date_created FROM assignments WHERE account_email = $1 ORDER BY date_created", accountEmail)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows, a *Assignment) error {
		return row.Scan(&a.ID, &a.AccountEmail, &a.RoleID, &a.CreatedAt)
	})
}

// PermissionNamesForAccount resolves the full permission set of an account
// by walking assignments to grants to permissions. Used at login to mint
// the token's permission claims.
func (s *Storage) PermissionNamesForAccount(ctx context.Context, accountEmail string) ([]string, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	rows, err := conn.Query(ctx, `
		SELECT DISTINCT p.name
		FROM assignments a
		JOIN grants g ON g.role_id = a.role_id
		JOIN permissions p ON p.id = g.permission_id
		WHERE a.account_email = $1
		ORDER BY p.name`, accountEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// collect drains rows into a slice using the provided scan function.
func collect[T any](rows pgx.Rows, scan func(pgx.Rows, *T) error) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		var item T
		if err := scan(rows, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
