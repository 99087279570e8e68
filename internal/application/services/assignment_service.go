package services

import (
	"context"
	"strings"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
)

// AssignmentService routes new leads to counselors by location.
type AssignmentService struct {
	settings *SettingsService
	admins   admin.Repository
	logger   *logging.ChanneledLogger
}

// NewAssignmentService creates a new location assignment service
func NewAssignmentService(settingsSvc *SettingsService, admins admin.Repository, logger *logging.ChanneledLogger) *AssignmentService {
	return &AssignmentService{settings: settingsSvc, admins: admins, logger: logger}
}

// AssignByLocation returns the id of the active admin responsible for
// location, or "" when auto-assignment is off or nothing matches. An exact
// case-insensitive match anywhere in the mapping wins over a substring match.
func (s *AssignmentService) AssignByLocation(ctx context.Context, location string) string {
	if !s.settings.Flag(ctx, settings.KeyLocationBasedAssignment) {
		return ""
	}
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return ""
	}

	mapping, err := s.settings.LocationAssignments(ctx)
	if err != nil {
		s.logger.Leads().Error("Failed to read location assignments", "error", err)
		return ""
	}
	if len(mapping) == 0 {
		return ""
	}

	if id := s.firstActive(ctx, mapping, location, exactLocation); id != "" {
		s.logger.Leads().Info("Lead auto-assigned by exact location match", "location", location, "adminId", logging.MaskID(id))
		return id
	}
	if id := s.firstActive(ctx, mapping, location, partialLocation); id != "" {
		s.logger.Leads().Info("Lead auto-assigned by partial location match", "location", location, "adminId", logging.MaskID(id))
		return id
	}

	s.logger.Leads().Debug("No location assignment match", "location", location)
	return ""
}

func (s *AssignmentService) firstActive(ctx context.Context, mapping settings.LocationAssignmentSetting, location string, match func(lead, configured string) bool) string {
	for _, entry := range mapping {
		if !anyLocation(entry.Locations, location, match) {
			continue
		}
		acct, err := s.admins.FindActive(ctx, entry.AdminID)
		if err != nil {
			s.logger.Leads().Error("Failed to load assignee", "error", err, "adminId", logging.MaskID(entry.AdminID))
			continue
		}
		if acct != nil {
			return acct.ID
		}
	}
	return ""
}

func anyLocation(locations []string, location string, match func(lead, configured string) bool) bool {
	for _, loc := range locations {
		if match(location, strings.ToLower(strings.TrimSpace(loc))) {
			return true
		}
	}
	return false
}

func exactLocation(lead, configured string) bool {
	return lead == configured
}

func partialLocation(lead, configured string) bool {
	if configured == "" {
		return false
	}
	return strings.Contains(lead, configured) || strings.Contains(configured, lead)
}
