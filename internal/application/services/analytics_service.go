package services

import (
	"context"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
)

type LeadStats struct {
	Total      int64        `json:"total"`
	ByStatus   []lead.Group `json:"byStatus"`
	LastWeek   int64        `json:"lastWeek"`
	LastMonth  int64        `json:"lastMonth"`
	ByCourse   []lead.Group `json:"byCourse"`
	ByLocation []lead.Group `json:"byLocation"`
}

type AdminStats struct {
	Total  int64             `json:"total"`
	Active int64             `json:"active"`
	ByRole []admin.RoleCount `json:"byRole"`
}

// Dashboard is the payload of GET /api/analytics.
type Dashboard struct {
	Leads  LeadStats  `json:"leads"`
	Admins AdminStats `json:"admins"`
}

type AnalyticsService struct {
	leads  lead.Repository
	admins admin.Repository
	logger *logging.ChanneledLogger
	now    func() time.Time
}

func NewAnalyticsService(leads lead.Repository, admins admin.Repository, logger *logging.ChanneledLogger) *AnalyticsService {
	return &AnalyticsService{leads: leads, admins: admins, logger: logger, now: time.Now}
}

// Dashboard aggregates lead and admin counts. Week and month windows are 7 and 30 days.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	start := time.Now()
	now := s.now().UTC()
	d := &Dashboard{}
	var err error

	if d.Leads.Total, err = s.leads.Count(ctx); err != nil {
		return nil, err
	}
	if d.Leads.ByStatus, err = s.leads.GroupBy(ctx, lead.FieldStatus); err != nil {
		return nil, err
	}
	if d.Leads.LastWeek, err = s.leads.CountSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if d.Leads.LastMonth, err = s.leads.CountSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return nil, err
	}
	if d.Leads.ByCourse, err = s.leads.GroupBy(ctx, lead.FieldCoursename); err != nil {
		return nil, err
	}
	if d.Leads.ByLocation, err = s.leads.GroupBy(ctx, lead.FieldLocation); err != nil {
		return nil, err
	}

	if d.Admins.Total, err = s.admins.Count(ctx); err != nil {
		return nil, err
	}
	if d.Admins.Active, err = s.admins.CountActive(ctx); err != nil {
		return nil, err
	}
	if d.Admins.ByRole, err = s.admins.CountByRole(ctx); err != nil {
		return nil, err
	}

	s.logger.Leads().Info("Analytics computed", "leads", d.Leads.Total, "admins", d.Admins.Total, "duration", time.Since(start))
	return d, nil
}
