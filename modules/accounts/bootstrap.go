package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/authzkit/pkg/logger"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// Bootstrap describes the initial state of the control schema: the first
// superuser, the admin role, and the control-plane permission catalog. It is
// applied on every start; existing rows are left untouched.
type Bootstrap struct {
	Superuser struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		FullName string `yaml:"full_name"`
	} `yaml:"superuser"`
	Role    string            `yaml:"role"`
	Domains []BootstrapDomain `yaml:"domains"`
}

type BootstrapDomain struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Permissions []BootstrapPermission `yaml:"permissions"`
}

type BootstrapPermission struct {
	Name        string `yaml:"name"`
	Action      string `yaml:"action"`
	Description string `yaml:"description"`
}

// ErrInvalidBootstrap is returned when the bootstrap file fails validation.
var ErrInvalidBootstrap = errors.New("invalid bootstrap configuration")

// LoadBootstrap reads and validates a bootstrap YAML file.
func LoadBootstrap(path string) (*Bootstrap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Bootstrap
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, errors.Join(ErrInvalidBootstrap, err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bootstrap) validate() error {
	b.Superuser.Email = strings.TrimSpace(strings.ToLower(b.Superuser.Email))
	if b.Superuser.Email == "" {
		return errors.Join(ErrInvalidBootstrap, errors.New("superuser email is required"))
	}
	if len(b.Superuser.Password) < MinPasswordLength {
		return errors.Join(ErrInvalidBootstrap, ErrWeakPassword)
	}
	if strings.TrimSpace(b.Role) == "" {
		b.Role = "superadmin"
	}
	for _, d := range b.Domains {
		if strings.TrimSpace(d.Name) == "" {
			return errors.Join(ErrInvalidBootstrap, errors.New("domain name is required"))
		}
		for _, p := range d.Permissions {
			if strings.TrimSpace(p.Name) == "" {
				return errors.Join(ErrInvalidBootstrap, fmt.Errorf("domain %q: permission name is required", d.Name))
			}
			switch p.Action {
			case "create", "read", "update", "delete":
			default:
				return errors.Join(ErrInvalidBootstrap, fmt.Errorf("permission %q: unknown action %q", p.Name, p.Action))
			}
		}
	}
	return nil
}

// Apply seeds the control schema in a single transaction. Every insert is
// an upsert no-op on conflict, so reapplying the same file is harmless. All
// seeded permissions are granted to the bootstrap role, which is assigned
// to the superuser.
func (b *Bootstrap) Apply(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+pgx.Identifier{tenant.ControlSchema}.Sanitize()+", public"); err != nil {
		return err
	}

	for _, d := range b.Domains {
		var domainID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO domains (id, name, description) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			uuid.New(), d.Name, d.Description).Scan(&domainID)
		if err != nil {
			return err
		}

		for _, p := range d.Permissions {
			if _, err := tx.Exec(ctx, `
				INSERT INTO permissions (id, domain_id, name, action, description) VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (name) DO NOTHING`,
				uuid.New(), domainID, p.Name, p.Action, p.Description); err != nil {
				return err
			}
		}
	}

	var roleID uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO roles (id, name, description) VALUES ($1, $2, 'bootstrap superuser role')
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		uuid.New(), b.Role).Scan(&roleID); err != nil {
		return err
	}

	// Grant everything in the catalog to the bootstrap role, including
	// permissions added by a newer bootstrap file on an older database.
	if _, err := tx.Exec(ctx, `
		INSERT INTO grants (id, permission_id, role_id)
		SELECT gen_random_uuid(), p.id, $1 FROM permissions p
		ON CONFLICT (permission_id, role_id) DO NOTHING`, roleID); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(b.Superuser.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO accounts (id, email, full_name, password_hash) VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		uuid.New(), b.Superuser.Email, b.Superuser.FullName, string(hash)); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO assignments (id, account_email, role_id) VALUES ($1, $2, $3)
		ON CONFLICT (account_email, role_id) DO NOTHING`,
		uuid.New(), b.Superuser.Email, roleID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.InfoContext(ctx, "control schema bootstrapped",
		logger.Account(b.Superuser.Email), logger.Schema(tenant.ControlSchema))
	return nil
}
