package services

import (
	"context"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// LoginHistoryService records every dashboard login attempt.
type LoginHistoryService struct {
	repo    audit.LoginHistoryRepository
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewLoginHistoryService creates a new login history service
func NewLoginHistoryService(repo audit.LoginHistoryRepository, logger *logging.ChanneledLogger, m *metrics.Metrics) *LoginHistoryService {
	return &LoginHistoryService{repo: repo, logger: logger, metrics: m}
}

// Record appends one attempt. adminID is empty when the login matched no admin.
func (s *LoginHistoryService) Record(ctx context.Context, adminID string, client ClientInfo, success bool) {
	var id *string
	if adminID != "" {
		id = &adminID
	}
	attempt := audit.NewLoginAttempt(id, client.IPAddress, client.UserAgent, success)
	attempt.ID = security.NewObjectID()
	attempt.LoginAt = time.Now().UTC()

	if err := s.repo.Append(ctx, attempt); err != nil {
		s.logger.Auth().Error("Failed to write login history", "error", err, "adminId", logging.MaskID(adminID), "success", success)
		s.metrics.SideEffectFailed(metrics.SideEffectAudit)
	}
}

// List returns one page of login history, newest first. The end date is
// inclusive of the following day.
func (s *LoginHistoryService) List(ctx context.Context, q audit.Query) (audit.Page[*audit.LoginAttempt], error) {
	q = q.Normalize(audit.DefaultLoginHistoryLimit)
	if q.AdminID != "" && !security.IsObjectID(q.AdminID) {
		s.logger.Auth().Warn("Invalid adminId in login history filter", "adminId", q.AdminID)
		return audit.EmptyPage[*audit.LoginAttempt](q), nil
	}
	q.End = plusOneDay(q.End)

	attempts, total, err := s.repo.List(ctx, q)
	if err != nil {
		return audit.Page[*audit.LoginAttempt]{}, err
	}
	return audit.NewPage(attempts, q, total), nil
}

// ClientInfo identifies the caller of a login attempt.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

func plusOneDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	next := t.AddDate(0, 0, 1)
	return &next
}
