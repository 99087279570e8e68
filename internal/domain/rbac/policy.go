package rbac

import "slices"

// Action names a guarded dashboard operation.
type Action string

const (
	ActionListLeads       Action = "leads.list"
	ActionCountLeads      Action = "leads.count"
	ActionFilterLeads     Action = "leads.filter"
	ActionUpdateLead      Action = "leads.update"
	ActionPatchLead       Action = "leads.patch"
	ActionDeleteLead      Action = "leads.delete"
	ActionBulkUpdateLeads Action = "leads.bulk_update"
	ActionBulkDeleteLeads Action = "leads.bulk_delete"

	ActionGetUser    Action = "users.get"
	ActionCreateUser Action = "users.create"
	ActionUpdateUser Action = "users.update"
	ActionDeleteUser Action = "users.delete"

	ActionCreateAdmin Action = "admins.create"
	ActionListAdmins  Action = "admins.list"
	ActionUpdateAdmin Action = "admins.update"
	ActionDeleteAdmin Action = "admins.delete"

	ActionListRolePermissions  Action = "role_permissions.list"
	ActionUpdateRolePermission Action = "role_permissions.update"

	ActionListAuditLogs     Action = "audit_logs.list"
	ActionListAdminActivity Action = "admin_activity.list"
	ActionListLoginHistory  Action = "login_history.list"
	ActionViewAnalytics     Action = "analytics.view"

	ActionListSettings  Action = "settings.list"
	ActionGetSetting    Action = "settings.get"
	ActionCreateSetting Action = "settings.create"
	ActionUpsertSetting Action = "settings.upsert"

	ActionViewCurrentAdmin Action = "current_admin.view"
	ActionTrackActivity    Action = "activity.track"

	ActionManageLogs Action = "system.logs"
)

var (
	everyone        = []Role{RoleSuperAdmin, RoleAdmin, RoleEditMode, RoleViewMode}
	editors         = []Role{RoleSuperAdmin, RoleAdmin, RoleEditMode}
	privileged      = []Role{RoleSuperAdmin, RoleAdmin}
	superAdminsOnly = []Role{RoleSuperAdmin}
)

// routePolicy is the single source of truth for which roles may perform each action.
// Roles do not inherit from each other; every action enumerates its allowed set.
var routePolicy = map[Action][]Role{
	ActionListLeads:       everyone,
	ActionCountLeads:      privileged,
	ActionFilterLeads:     everyone,
	ActionUpdateLead:      editors,
	ActionPatchLead:       everyone,
	ActionDeleteLead:      privileged,
	ActionBulkUpdateLeads: editors,
	ActionBulkDeleteLeads: privileged,

	ActionGetUser:    everyone,
	ActionCreateUser: editors,
	ActionUpdateUser: editors,
	ActionDeleteUser: privileged,

	ActionCreateAdmin: superAdminsOnly,
	ActionListAdmins:  privileged,
	ActionUpdateAdmin: superAdminsOnly,
	ActionDeleteAdmin: superAdminsOnly,

	ActionListRolePermissions:  superAdminsOnly,
	ActionUpdateRolePermission: superAdminsOnly,

	ActionListAuditLogs:     privileged,
	ActionListAdminActivity: privileged,
	ActionListLoginHistory:  superAdminsOnly,
	ActionViewAnalytics:     privileged,

	ActionListSettings:  superAdminsOnly,
	ActionGetSetting:    privileged,
	ActionCreateSetting: superAdminsOnly,
	ActionUpsertSetting: superAdminsOnly,

	ActionViewCurrentAdmin: everyone,
	ActionTrackActivity:    everyone,

	ActionManageLogs: superAdminsOnly,
}

// Allowed reports whether role may perform action. Unknown actions are denied.
func Allowed(role Role, action Action) bool {
	return slices.Contains(routePolicy[action], role)
}

// RolesFor returns a copy of the roles allowed to perform action.
func RolesFor(action Action) []Role {
	return slices.Clone(routePolicy[action])
}

// Actions returns every action known to the policy.
func Actions() []Action {
	actions := make([]Action, 0, len(routePolicy))
	for a := range routePolicy {
		actions = append(actions, a)
	}
	slices.Sort(actions)
	return actions
}
