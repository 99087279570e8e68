package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
)

var ErrActionRequired = errors.New("activity action is required")

// Activity is a page view or UI action reported by the dashboard client.
type Activity struct {
	ID        string
	AdminID   string
	Admin     *admin.Ref
	Action    string
	Page      string
	Details   string
	CreatedAt time.Time
}

func (a *Activity) MarshalJSON() ([]byte, error) {
	id := a.AdminID
	return json.Marshal(struct {
		ID        string    `json:"_id"`
		AdminID   any       `json:"adminId"`
		Action    string    `json:"action"`
		Page      string    `json:"page"`
		Details   string    `json:"details"`
		CreatedAt time.Time `json:"createdAt"`
	}{a.ID, adminRef(&id, a.Admin), a.Action, a.Page, a.Details, a.CreatedAt})
}

// ActivityRepository appends and lists activity entries.
type ActivityRepository interface {
	Append(ctx context.Context, a *Activity) error
	List(ctx context.Context, q Query) ([]*Activity, int64, error)
}
