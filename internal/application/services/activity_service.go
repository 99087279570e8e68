package services

import (
	"context"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// ActivityService records and lists client-reported admin activity.
type ActivityService struct {
	repo    audit.ActivityRepository
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewActivityService creates a new activity service
func NewActivityService(repo audit.ActivityRepository, logger *logging.ChanneledLogger, m *metrics.Metrics) *ActivityService {
	return &ActivityService{repo: repo, logger: logger, metrics: m}
}

// Track appends an activity entry. Only a missing action is reported; storage
// failures are logged and counted.
func (s *ActivityService) Track(ctx context.Context, adminID, action, page, details string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return audit.ErrActionRequired
	}

	entry := &audit.Activity{
		ID:        security.NewObjectID(),
		AdminID:   adminID,
		Action:    action,
		Page:      page,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Activity().Error("Failed to write activity entry", "error", err, "action", action)
		s.metrics.SideEffectFailed(metrics.SideEffectActivity)
		return nil
	}
	s.logger.Activity().Debug("Activity recorded", "action", action, "page", page, "adminId", logging.MaskID(adminID))
	return nil
}

// List returns one page of activity. Date bounds cover whole UTC days.
func (s *ActivityService) List(ctx context.Context, q audit.Query) (audit.Page[*audit.Activity], error) {
	q = q.Normalize(audit.DefaultLimit)
	if q.AdminID != "" && !security.IsObjectID(q.AdminID) {
		s.logger.Activity().Warn("Invalid adminId in admin activity filter", "adminId", q.AdminID)
		return audit.EmptyPage[*audit.Activity](q), nil
	}
	if q.Start != nil {
		start := startOfDay(*q.Start)
		q.Start = &start
	}
	if q.End != nil {
		end := endOfDay(*q.End)
		q.End = &end
	}

	activities, total, err := s.repo.List(ctx, q)
	if err != nil {
		return audit.Page[*audit.Activity]{}, err
	}
	return audit.NewPage(activities, q, total), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Millisecond)
}
