package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status describes the lifecycle state of a tenant.
type Status string

const (
	// StatusActive marks a tenant that serves traffic.
	StatusActive Status = "active"
	// StatusRetired marks a tenant whose schema is kept but no longer routable.
	StatusRetired Status = "retired"
)

// Tenant is the descriptor of one isolated application. Each tenant maps
// 1:1 to a database schema; the schema name is derived from the tenant name
// at registration time and never changes afterwards.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Schema      string    `json:"-"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"date_created"`
	UpdatedAt   time.Time `json:"date_updated"`
}

// Active reports whether the tenant may be bound to requests.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// Registry is the durable tenant-id -> descriptor mapping consulted by the
// router. The control-plane schema is the single source of truth; writes go
// through the provisioner, the router only reads.
type Registry interface {
	// GetByID retrieves a tenant by its opaque identifier.
	// Returns ErrTenantNotFound if no tenant matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// GetByName retrieves a tenant by its unique name.
	// Returns ErrTenantNotFound if no tenant matches.
	GetByName(ctx context.Context, name string) (*Tenant, error)
}
