package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedMatchesRouteTable(t *testing.T) {
	tests := []struct {
		action  Action
		allowed []Role
	}{
		{ActionListLeads, []Role{RoleSuperAdmin, RoleAdmin, RoleEditMode, RoleViewMode}},
		{ActionCountLeads, []Role{RoleSuperAdmin, RoleAdmin}},
		{ActionBulkUpdateLeads, []Role{RoleSuperAdmin, RoleAdmin, RoleEditMode}},
		{ActionPatchLead, []Role{RoleSuperAdmin, RoleAdmin, RoleEditMode, RoleViewMode}},
		{ActionDeleteLead, []Role{RoleSuperAdmin, RoleAdmin}},
		{ActionCreateAdmin, []Role{RoleSuperAdmin}},
		{ActionListAdmins, []Role{RoleSuperAdmin, RoleAdmin}},
		{ActionListLoginHistory, []Role{RoleSuperAdmin}},
		{ActionGetSetting, []Role{RoleSuperAdmin, RoleAdmin}},
		{ActionListSettings, []Role{RoleSuperAdmin}},
		{ActionTrackActivity, []Role{RoleSuperAdmin, RoleAdmin, RoleEditMode, RoleViewMode}},
		{ActionManageLogs, []Role{RoleSuperAdmin}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			for _, role := range AllRoles {
				assert.Equal(t, contains(tt.allowed, role), Allowed(role, tt.action), "role %s", role)
			}
		})
	}
}

func TestUnknownActionIsDenied(t *testing.T) {
	for _, role := range AllRoles {
		assert.False(t, Allowed(role, Action("leads.export")))
	}
	assert.False(t, Allowed(Role("Guest"), ActionListLeads))
}

func TestEveryActionHasAnAllowList(t *testing.T) {
	for _, action := range Actions() {
		roles := RolesFor(action)
		require.NotEmpty(t, roles, "action %s", action)
		assert.Contains(t, roles, RoleSuperAdmin, "SuperAdmin should reach %s", action)
	}
}

func TestRolesForReturnsCopy(t *testing.T) {
	roles := RolesFor(ActionCreateAdmin)
	roles[0] = RoleViewMode
	assert.False(t, Allowed(RoleViewMode, ActionCreateAdmin))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("EditMode")
	assert.True(t, ok)
	assert.Equal(t, RoleEditMode, r)

	_, ok = ParseRole("editmode")
	assert.False(t, ok)
}

func TestEditable(t *testing.T) {
	assert.False(t, Editable(RoleSuperAdmin))
	assert.True(t, Editable(RoleAdmin))
	assert.True(t, Editable(RoleViewMode))
	assert.True(t, Editable(RoleEditMode))
}

func contains(roles []Role, r Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
