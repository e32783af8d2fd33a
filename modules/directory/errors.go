package directory

import "errors"

var (
	ErrDomainNotFound     = errors.New("domain not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrRoleNotFound       = errors.New("role not found")

	// ErrDuplicateName is returned when a domain, permission or role name is
	// already taken within the tenant schema.
	ErrDuplicateName = errors.New("name already taken")

	// ErrDuplicateGrant is returned when the (permission, role) pair already
	// exists.
	ErrDuplicateGrant = errors.New("permission already granted to role")

	// ErrDuplicateAssignment is returned when the (account email, role) pair
	// already exists.
	ErrDuplicateAssignment = errors.New("role already assigned to account")

	// ErrUnknownReference is returned when a grant or assignment points at a
	// permission or role that does not exist.
	ErrUnknownReference = errors.New("referenced record does not exist")

	// ErrUnknownAction is returned when a permission action is outside the
	// create/read/update/delete set.
	ErrUnknownAction = errors.New("unknown permission action")

	// ErrEmptyName is returned when a required name field is blank.
	ErrEmptyName = errors.New("name must not be empty")
)
