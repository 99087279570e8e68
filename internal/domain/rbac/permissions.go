package rbac

import (
	"context"
	"errors"
)

// ErrRoleNotFound is returned when no permission row exists for a role.
var ErrRoleNotFound = errors.New("role not found")

// ErrRoleNotEditable is returned when a caller tries to change SuperAdmin permissions.
var ErrRoleNotEditable = errors.New("role permissions cannot be modified")

// CRUD holds create/read/update/delete flags for one resource.
type CRUD struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// ViewOnly holds the single view flag of a read-only resource.
type ViewOnly struct {
	View bool `json:"view"`
}

// Permissions is the matrix stored for a role.
type Permissions struct {
	Users     CRUD     `json:"users"`
	Leads     CRUD     `json:"leads"`
	Admins    CRUD     `json:"admins"`
	Analytics ViewOnly `json:"analytics"`
	AuditLogs ViewOnly `json:"auditLogs"`
}

// RolePermission is the persisted permission matrix of a role.
type RolePermission struct {
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// RolePermissionRepository persists permission matrices.
type RolePermissionRepository interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]*RolePermission, error)
	FindByRole(ctx context.Context, role Role) (*RolePermission, error)
	Save(ctx context.Context, rp *RolePermission) error
}

// Editable reports whether the permissions of role may be changed through the API.
func Editable(role Role) bool {
	return role == RoleAdmin || role == RoleViewMode || role == RoleEditMode
}

var all = CRUD{Create: true, Read: true, Update: true, Delete: true}

// DefaultPermissions returns the matrices seeded into an empty store.
func DefaultPermissions() []*RolePermission {
	return []*RolePermission{
		{
			Role: RoleSuperAdmin,
			Permissions: Permissions{
				Users: all, Leads: all, Admins: all,
				Analytics: ViewOnly{View: true},
				AuditLogs: ViewOnly{View: true},
			},
		},
		{
			Role: RoleAdmin,
			Permissions: Permissions{
				Users: all, Leads: all,
				Admins:    CRUD{Read: true},
				Analytics: ViewOnly{View: true},
				AuditLogs: ViewOnly{View: false},
			},
		},
		{
			Role: RoleViewMode,
			Permissions: Permissions{
				Users: CRUD{Read: true},
				Leads: CRUD{Read: true},
			},
		},
		{
			Role: RoleEditMode,
			Permissions: Permissions{
				Users: CRUD{Create: true, Read: true, Update: true},
				Leads: CRUD{Create: true, Read: true, Update: true},
			},
		},
	}
}
