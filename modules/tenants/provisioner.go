package tenants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/logger"
	"github.com/dmitrymomot/authzkit/pkg/pg"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// SeedPermission is one permission to create inside a freshly provisioned
// schema. The wire field is named "type"; the value must be one of
// create/read/update/delete.
type SeedPermission struct {
	Name        string `json:"name"`
	Action      string `json:"type"`
	Description string `json:"description,omitempty"`
}

// SeedDomain groups the permissions seeded for one functional area.
type SeedDomain struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Permissions []SeedPermission `json:"permissions,omitempty"`
}

var validActions = map[string]struct{}{
	"create": {},
	"read":   {},
	"update": {},
	"delete": {},
}

// Registry is the provisioner's view of the tenant registry. Schema names
// derive from tenant names non-injectively, so lookups exist for both keys.
type Registry interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	GetByName(ctx context.Context, name string) (*tenant.Tenant, error)
	GetBySchema(ctx context.Context, schema string) (*tenant.Tenant, error)
	Create(ctx context.Context, t *tenant.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SchemaManager performs the physical schema work of the saga: DDL,
// migrations and seeding. Seeding is atomic within one transaction.
type SchemaManager interface {
	Create(ctx context.Context, schema string) error
	Drop(ctx context.Context, schema string) error
	Migrate(ctx context.Context, schema string) error
	Seed(ctx context.Context, schema string, domains []SeedDomain) error
}

// Provisioner builds and tears down tenant schemas. Provisioning is
// retry-safe: the registry insert happens last, so a tenant is either fully
// built and registered or not registered at all.
type Provisioner struct {
	registry Registry
	schemas  SchemaManager
	cache    tenant.Cache
	log      *slog.Logger
	now      func() time.Time
}

// NewProvisioner wires the provisioner. The cache is used for invalidation
// on deprovisioning; pass tenant.NewNoOpCache() when routing is uncached.
func NewProvisioner(registry Registry, schemas SchemaManager, cache tenant.Cache, log *slog.Logger) *Provisioner {
	return &Provisioner{
		registry: registry,
		schemas:  schemas,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// Provision registers a new tenant: derive the schema name, rebuild the
// schema from scratch, apply migrations, seed domains and permissions in one
// transaction, then insert the registry row. Re-provisioning an already
// registered name returns the existing descriptor unchanged, which makes
// client retries safe. A name that derives another tenant's schema is a
// conflict: the drop-first retry protocol must never touch a schema owned
// by someone else.
func (p *Provisioner) Provision(ctx context.Context, name, description string, domains []SeedDomain) (*tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTenantName
	}
	if err := validateSeed(domains); err != nil {
		return nil, err
	}

	schema := tenant.SchemaName(name)
	if schema == "" {
		return nil, ErrEmptyTenantName
	}
	if tenant.IsReservedSchema(schema) {
		return nil, ErrReservedName
	}

	if existing, err := p.registry.GetByName(ctx, name); err == nil {
		return existing, nil
	} else if !errors.Is(err, tenant.ErrTenantNotFound) {
		return nil, errors.Join(ErrProvisionFailed, err)
	}

	// Different names can derive the same schema ("acme inc", "Acme, Inc.").
	// The name check above misses those, and cleaning first would destroy
	// the registered tenant's live schema.
	if _, err := p.registry.GetBySchema(ctx, schema); err == nil {
		return nil, ErrSchemaCollision
	} else if !errors.Is(err, tenant.ErrTenantNotFound) {
		return nil, errors.Join(ErrProvisionFailed, err)
	}

	// A previous attempt may have died between schema creation and registry
	// insert; dropping first guarantees migrations run against a blank slate.
	if err := p.schemas.Drop(ctx, schema); err != nil {
		return nil, errors.Join(ErrProvisionFailed, err)
	}
	if err := p.schemas.Create(ctx, schema); err != nil {
		return nil, p.compensate(ctx, schema, err)
	}
	if err := p.schemas.Migrate(ctx, schema); err != nil {
		return nil, p.compensate(ctx, schema, err)
	}
	if err := p.schemas.Seed(ctx, schema, domains); err != nil {
		return nil, p.compensate(ctx, schema, err)
	}

	now := p.now().UTC()
	t := &tenant.Tenant{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Schema:      schema,
		Status:      tenant.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := p.registry.Create(ctx, t); err != nil {
		if pg.IsDuplicateKeyError(err) {
			// Lost a registration race. Same name: the winner's schema is
			// identical to the one just built, return their descriptor.
			// Different name deriving the same schema: the schema now
			// belongs to the winner, so it must not be dropped.
			if existing, getErr := p.registry.GetByName(ctx, name); getErr == nil {
				return existing, nil
			}
			return nil, ErrSchemaCollision
		}
		return nil, p.compensate(ctx, schema, err)
	}

	p.log.InfoContext(ctx, "tenant provisioned",
		logger.TenantID(t.ID), logger.Schema(schema))
	return t, nil
}

// Deprovision drops the tenant schema and removes the registry row. Both
// halves are idempotent; a half-deleted tenant can be deleted again.
func (p *Provisioner) Deprovision(ctx context.Context, id uuid.UUID) error {
	t, err := p.registry.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := p.schemas.Drop(ctx, t.Schema); err != nil {
		return err
	}

	if err := p.registry.Delete(ctx, id); err != nil && !errors.Is(err, tenant.ErrTenantNotFound) {
		return err
	}

	p.cache.Delete(ctx, id.String())

	p.log.InfoContext(ctx, "tenant deprovisioned",
		logger.TenantID(id), logger.Schema(t.Schema))
	return nil
}

// compensate drops the partially built schema so a failed attempt leaves no
// trace. The original error always wins; a failed drop is only logged.
func (p *Provisioner) compensate(ctx context.Context, schema string, cause error) error {
	if err := p.schemas.Drop(ctx, schema); err != nil {
		p.log.ErrorContext(ctx, "failed to clean up schema after provisioning failure",
			logger.Schema(schema), logger.Error(err))
	}
	return errors.Join(ErrProvisionFailed, cause)
}

func validateSeed(domains []SeedDomain) error {
	for _, d := range domains {
		if strings.TrimSpace(d.Name) == "" {
			return errors.Join(ErrInvalidSeed, errors.New("domain name must not be empty"))
		}
		for _, perm := range d.Permissions {
			if strings.TrimSpace(perm.Name) == "" {
				return errors.Join(ErrInvalidSeed, fmt.Errorf("domain %q: permission name must not be empty", d.Name))
			}
			if _, ok := validActions[perm.Action]; !ok {
				return errors.Join(ErrInvalidSeed, fmt.Errorf("permission %q: unknown action %q", perm.Name, perm.Action))
			}
		}
	}
	return nil
}
