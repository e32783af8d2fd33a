package directory

import (
	"time"

	"github.com/google/uuid"
)

// Action is the operation class of a permission. Permission names are
// atomic; the action only classifies them, it is never pattern-matched.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action belongs to the CRUD set.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Domain groups permissions for one functional area of the tenant.
type Domain struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"date_created"`
	UpdatedAt   time.Time `json:"date_updated"`
}

// Permission is a named capability within a domain. Names are unique across
// the whole tenant schema, not just within the domain.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	DomainID    uuid.UUID `json:"domain_id"`
	Name        string    `json:"name"`
	Action      Action    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"date_created"`
	UpdatedAt   time.Time `json:"date_updated"`
}

// Role is a named bundle of granted permissions.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"date_created"`
	UpdatedAt   time.Time `json:"date_updated"`
}

// Grant links one permission to one role. The pair is unique.
type Grant struct {
	ID           uuid.UUID `json:"id"`
	PermissionID uuid.UUID `json:"permission_id"`
	RoleID       uuid.UUID `json:"role_id"`
	CreatedAt    time.Time `json:"date_created"`
}

// Assignment links one account (by email) to one role. The pair is unique.
// Accounts are referenced by email rather than id so roles can be assigned
// before the account ever logs in.
type Assignment struct {
	ID           uuid.UUID `json:"id"`
	AccountEmail string    `json:"account_email"`
	RoleID       uuid.UUID `json:"role_id"`
	CreatedAt    time.Time `json:"date_created"`
}
