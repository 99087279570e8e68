package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
)

const unknownClient = "unknown"

// LoginAttempt is one row of login history. AdminID is nil when the login
// name matched no admin.
type LoginAttempt struct {
	ID        string
	AdminID   *string
	Admin     *admin.Ref
	IPAddress string
	UserAgent string
	Success   bool
	LoginAt   time.Time
}

// NewLoginAttempt records the client of an attempt, substituting "unknown" for blanks.
func NewLoginAttempt(adminID *string, ip, userAgent string, success bool) *LoginAttempt {
	if ip == "" {
		ip = unknownClient
	}
	if userAgent == "" {
		userAgent = unknownClient
	}
	return &LoginAttempt{AdminID: adminID, IPAddress: ip, UserAgent: userAgent, Success: success}
}

func (l *LoginAttempt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"_id"`
		AdminID   any       `json:"adminId"`
		IPAddress string    `json:"ipAddress"`
		UserAgent string    `json:"userAgent"`
		Success   bool      `json:"success"`
		LoginAt   time.Time `json:"loginAt"`
	}{l.ID, adminRef(l.AdminID, l.Admin), l.IPAddress, l.UserAgent, l.Success, l.LoginAt})
}

// LoginHistoryRepository appends and lists login attempts.
type LoginHistoryRepository interface {
	Append(ctx context.Context, l *LoginAttempt) error
	List(ctx context.Context, q Query) ([]*LoginAttempt, int64, error)
}
