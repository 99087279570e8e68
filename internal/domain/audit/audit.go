// Package audit holds the append-only trails: administrative audit entries,
// login history and client-reported admin activity.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
)

// Audit actions.
const (
	ActionLogin                 = "login"
	ActionAccountDeactivated    = "account_deactivated"
	ActionUpdateLead            = "update_lead"
	ActionDeleteLead            = "delete_lead"
	ActionBulkUpdateLeads       = "bulk_update_leads"
	ActionBulkDeleteLeads       = "bulk_delete_leads"
	ActionCreateAdmin           = "create_admin"
	ActionUpdateAdmin           = "update_admin"
	ActionDeleteAdmin           = "delete_admin"
	ActionUpdateRolePermissions = "update_role_permissions"
	ActionCreateUser            = "create_user"
	ActionUpdateUser            = "update_user"
	ActionDeleteUser            = "delete_user"
	ActionCreate                = "create"
	ActionUpdate                = "update"
)

// Audit targets.
const (
	TargetUser           = "User"
	TargetAdmin          = "Admin"
	TargetRolePermission = "RolePermission"
	TargetSetting        = "Setting"
)

// Metadata is the free-form payload of an audit entry.
type Metadata map[string]any

// Entry is one audit log record.
type Entry struct {
	ID        string
	AdminID   *string
	Admin     *admin.Ref
	Action    string
	Target    string
	Metadata  Metadata
	CreatedAt time.Time
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"_id"`
		AdminID   any       `json:"adminId"`
		Action    string    `json:"action"`
		Target    string    `json:"target"`
		Metadata  Metadata  `json:"metadata"`
		CreatedAt time.Time `json:"createdAt"`
	}{e.ID, adminRef(e.AdminID, e.Admin), e.Action, e.Target, e.Metadata, e.CreatedAt})
}

// adminRef renders a reference populated when ref is set, as the id string
// otherwise, or null.
func adminRef(id *string, ref *admin.Ref) any {
	switch {
	case ref != nil:
		return ref
	case id != nil:
		return *id
	default:
		return nil
	}
}

// Repository appends and lists audit entries.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, q Query) ([]*Entry, int64, error)
}
