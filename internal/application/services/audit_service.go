// Package services provides application-level orchestration services
package services

import (
	"context"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// AuditService appends administrative audit entries and serves the audit trail.
type AuditService struct {
	repo     audit.Repository
	leadRepo lead.Repository
	logger   *logging.ChanneledLogger
	metrics  *metrics.Metrics
}

// NewAuditService creates a new audit service
func NewAuditService(repo audit.Repository, leadRepo lead.Repository, logger *logging.ChanneledLogger, m *metrics.Metrics) *AuditService {
	return &AuditService{
		repo:     repo,
		leadRepo: leadRepo,
		logger:   logger,
		metrics:  m,
	}
}

// Log appends an audit entry. It never fails: write errors are logged and counted.
// Entries about a lead (target User with metadata.userId) are enriched with the
// lead's name, email and contact.
func (s *AuditService) Log(ctx context.Context, adminID, action, target string, metadata audit.Metadata) {
	if metadata == nil {
		metadata = audit.Metadata{}
	}

	if target == audit.TargetUser {
		if userID, ok := metadata["userId"].(string); ok && userID != "" {
			s.enrichWithLead(ctx, userID, metadata)
		}
	}

	entry := &audit.Entry{
		ID:        security.NewObjectID(),
		Action:    action,
		Target:    target,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if adminID != "" {
		entry.AdminID = &adminID
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Audit().Error("Failed to write audit entry", "error", err, "action", action, "target", target)
		s.metrics.SideEffectFailed(metrics.SideEffectAudit)
		return
	}
	s.logger.Audit().Info("Audit entry recorded", "action", action, "target", target, "adminId", logging.MaskID(adminID))
}

func (s *AuditService) enrichWithLead(ctx context.Context, userID string, metadata audit.Metadata) {
	if !security.IsObjectID(userID) {
		return
	}
	l, err := s.leadRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Audit().Warn("Failed to load lead for audit entry", "error", err, "userId", userID)
		return
	}
	if l == nil {
		return
	}
	metadata["leadName"] = l.Name
	metadata["leadEmail"] = l.Email
	metadata["leadContact"] = l.Contact
}

// List returns one page of the audit trail. Admin callers do not see entries
// whose metadata.role is SuperAdmin.
func (s *AuditService) List(ctx context.Context, q audit.Query, callerRole rbac.Role) (audit.Page[*audit.Entry], error) {
	q = q.Normalize(audit.DefaultLimit)
	if q.AdminID != "" && !security.IsObjectID(q.AdminID) {
		s.logger.Audit().Warn("Invalid adminId in audit log filter", "adminId", q.AdminID)
		return audit.EmptyPage[*audit.Entry](q), nil
	}
	q.End = plusOneDay(q.End)
	q.HideSuperAdminEntries = callerRole == rbac.RoleAdmin

	entries, total, err := s.repo.List(ctx, q)
	if err != nil {
		return audit.Page[*audit.Entry]{}, err
	}
	return audit.NewPage(entries, q, total), nil
}
