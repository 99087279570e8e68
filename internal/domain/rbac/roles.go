// Package rbac defines the dashboard roles, the per-route access policy and
// the persisted permission matrices shown to SuperAdmins.
package rbac

// Role is one of the four fixed dashboard roles.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleViewMode   Role = "ViewMode"
	RoleEditMode   Role = "EditMode"
)

// AllRoles lists every role in seeding order.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleViewMode, RoleEditMode}

// ParseRole returns the role named by s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// IsPrivileged reports whether the role bypasses assignment-based restrictions.
func (r Role) IsPrivileged() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

func (r Role) String() string { return string(r) }
