package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// Lead sources, used as the metrics label.
const (
	SourceContactForm = "contact-form"
	SourceSubmit      = "submit"
	SourceDashboard   = "dashboard"
)

const (
	defaultCountryCode = "+91"
	notApplicable      = "N/A"
)

// Caller is the authenticated admin performing an operation.
type Caller struct {
	ID   string
	Role rbac.Role
}

// LeadForm is a public lead submission.
type LeadForm struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	CountryCode string `json:"countryCode"`
	Coursename  string `json:"coursename"`
	Location    string `json:"location"`
	Notes       string `json:"notes"`
}

// leadSnapshot identifies a lead in bulk audit entries.
type leadSnapshot struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Contact string      `json:"contact"`
	Status  lead.Status `json:"status,omitempty"`
}

// LeadService implements the lead lifecycle: capture, listing, edits and bulk operations.
type LeadService struct {
	repo       lead.Repository
	admins     admin.Repository
	settings   *SettingsService
	assignment *AssignmentService
	notifier   *NotificationService
	audit      *AuditService
	logger     *logging.ChanneledLogger
	metrics    *metrics.Metrics
}

// NewLeadService creates a new lead service
func NewLeadService(
	repo lead.Repository,
	admins admin.Repository,
	settingsSvc *SettingsService,
	assignment *AssignmentService,
	notifier *NotificationService,
	auditSvc *AuditService,
	logger *logging.ChanneledLogger,
	m *metrics.Metrics,
) *LeadService {
	return &LeadService{
		repo:       repo,
		admins:     admins,
		settings:   settingsSvc,
		assignment: assignment,
		notifier:   notifier,
		audit:      auditSvc,
		logger:     logger,
		metrics:    m,
	}
}

// ContactForm stores a lead from the website contact form. Duplicates are
// accepted; the lead may be auto-assigned by location.
func (s *LeadService) ContactForm(ctx context.Context, form LeadForm) (*lead.Lead, error) {
	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Email) == "" || strings.TrimSpace(form.Contact) == "" {
		return nil, lead.ErrMissingRequired
	}

	l := newLead(form)
	if l.CountryCode == "" {
		l.CountryCode = defaultCountryCode
	}
	if id := s.assignment.AssignByLocation(ctx, l.Location); id != "" {
		l.AssignedTo = &id
	}

	if err := s.create(ctx, l, SourceContactForm); err != nil {
		return nil, err
	}
	s.notifier.ContactFormLead(ctx, l)
	return l, nil
}

// Submit stores a registration. A lead with the same email or contact is
// rejected with lead.ErrDuplicateEmail or lead.ErrDuplicateContact.
func (s *LeadService) Submit(ctx context.Context, form LeadForm) (*lead.Lead, error) {
	l := newLead(form)
	if l.Coursename == "" {
		l.Coursename = notApplicable
	}
	if l.Location == "" {
		l.Location = notApplicable
	}
	if l.Name == "" || l.Email == "" || l.Contact == "" {
		return nil, lead.ErrMissingRequired
	}

	existing, err := s.repo.FindByEmailOrContact(ctx, l.Email, l.Contact)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Leads().Info("Duplicate registration rejected", "leadId", existing.ID)
		switch {
		case existing.Email == l.Email:
			return nil, lead.ErrDuplicateEmail
		case existing.Contact == l.Contact:
			return nil, lead.ErrDuplicateContact
		default:
			return nil, lead.ErrDuplicate
		}
	}

	if err := s.create(ctx, l, SourceSubmit); err != nil {
		return nil, err
	}
	s.notifier.SubmittedLead(ctx, l)
	return l, nil
}

func newLead(form LeadForm) *lead.Lead {
	now := time.Now().UTC().Truncate(time.Millisecond)
	l := &lead.Lead{
		ID:          security.NewObjectID(),
		Name:        form.Name,
		Email:       form.Email,
		Contact:     form.Contact,
		CountryCode: form.CountryCode,
		Coursename:  form.Coursename,
		Location:    form.Location,
		Notes:       form.Notes,
		Status:      lead.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.Normalize()
	return l
}

func (s *LeadService) create(ctx context.Context, l *lead.Lead, source string) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return fmt.Errorf("failed to store lead: %w", err)
	}
	s.metrics.LeadCreated(source)
	s.logger.Leads().Info("Lead created", "leadId", l.ID, "source", source, "assigned", l.AssignedTo != nil)
	return nil
}

// List returns the dashboard lead list, newest first. maxLeadsToDisplay caps
// the result and restrictCounselorView limits non-privileged callers to
// their own leads.
func (s *LeadService) List(ctx context.Context, caller Caller, populate bool) ([]*lead.View, error) {
	f := lead.Filter{Populate: populate}
	if limit := s.settings.Number(ctx, settings.KeyMaxLeadsToDisplay); limit > 0 {
		f.Limit = int(limit)
	}
	if s.settings.Flag(ctx, settings.KeyRestrictCounselorView) && !caller.Role.IsPrivileged() {
		f.Assignment = lead.AssignmentTo
		f.AssignedTo = caller.ID
	}
	return s.repo.List(ctx, f)
}

// Count returns the number of leads.
func (s *LeadService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Filter returns leads matching f, newest first, with assignees populated.
func (s *LeadService) Filter(ctx context.Context, f lead.Filter) ([]*lead.View, error) {
	f.Populate = true
	return s.repo.List(ctx, f)
}

// Update applies a full-field edit.
func (s *LeadService) Update(ctx context.Context, caller Caller, id string, body map[string]json.RawMessage) (*lead.Lead, error) {
	return s.edit(ctx, caller, id, body, lead.FullUpdateFields, false)
}

// Patch applies a role-scoped edit. ViewMode callers may only change the
// contact fields, and restrictLeadEditing limits non-privileged callers to
// leads assigned to them.
func (s *LeadService) Patch(ctx context.Context, caller Caller, id string, body map[string]json.RawMessage) (*lead.Lead, error) {
	allowed := lead.FullUpdateFields
	if caller.Role == rbac.RoleViewMode {
		allowed = lead.ContactFields
	}
	return s.edit(ctx, caller, id, body, allowed, true)
}

func (s *LeadService) edit(ctx context.Context, caller Caller, id string, body map[string]json.RawMessage, allowed []lead.Field, enforceRestriction bool) (*lead.Lead, error) {
	if !security.IsObjectID(id) {
		return nil, lead.ErrInvalidID
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, lead.ErrNotFound
	}

	if enforceRestriction && !caller.Role.IsPrivileged() && s.settings.Flag(ctx, settings.KeyRestrictLeadEditing) {
		if l.AssignedTo == nil || *l.AssignedTo != caller.ID {
			s.logger.Leads().Info("Restricted lead edit rejected", "leadId", id, "adminId", logging.MaskID(caller.ID))
			return nil, lead.ErrEditRestricted
		}
	}

	changes, err := lead.ParseChanges(body, allowed)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, changes); err != nil {
		return nil, err
	}

	original := *l
	diff := lead.Apply(l, changes)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller.ID, audit.ActionUpdateLead, audit.TargetUser, audit.Metadata{
		"userId":       id,
		"leadName":     original.Name,
		"leadEmail":    original.Email,
		"leadContact":  original.Contact,
		"updateFields": diff,
	})
	s.logger.Leads().Info("Lead updated", "leadId", id, "fields", len(changes))
	return l, nil
}

// checkAssignee requires a newly assigned admin to exist and be active.
func (s *LeadService) checkAssignee(ctx context.Context, changes []lead.Change) error {
	adminID, ok := lead.AssigneeChange(changes)
	if !ok {
		return nil
	}
	acct, err := s.admins.FindActive(ctx, adminID)
	if err != nil {
		return err
	}
	if acct == nil {
		return &lead.ValidationError{Field: lead.FieldAssignedTo, Reason: "must reference an active admin"}
	}
	return nil
}

// Delete removes one lead.
func (s *LeadService) Delete(ctx context.Context, caller Caller, id string) error {
	if !security.IsObjectID(id) {
		return lead.ErrInvalidID
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return lead.ErrNotFound
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, caller.ID, audit.ActionDeleteLead, audit.TargetUser, audit.Metadata{
		"leadId":      id,
		"userId":      id,
		"leadName":    l.Name,
		"leadEmail":   l.Email,
		"leadContact": l.Contact,
		"leadStatus":  l.Status,
		"deletedAt":   time.Now().UTC(),
	})
	s.logger.Leads().Info("Lead deleted", "leadId", id)
	return nil
}

// BulkUpdate applies the bulk-editable fields of updateData to every listed lead.
func (s *LeadService) BulkUpdate(ctx context.Context, caller Caller, ids []string, updateData map[string]json.RawMessage) (int64, error) {
	if len(ids) == 0 {
		return 0, lead.ErrNoIDs
	}
	if len(updateData) == 0 {
		return 0, lead.ErrNoChanges
	}
	if err := checkIDs(ids); err != nil {
		return 0, err
	}

	changes, err := lead.ParseChanges(updateData, lead.BulkUpdateFields)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, lead.ErrNoChanges
	}
	if err := s.checkAssignee(ctx, changes); err != nil {
		return 0, err
	}

	affected, err := s.snapshot(ctx, ids, false)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.UpdateMany(ctx, ids, changes)
	if err != nil {
		return 0, err
	}

	fields := make(map[string]any, len(changes))
	for _, c := range changes {
		fields[string(c.Field)] = c.Submitted
	}
	s.audit.Log(ctx, caller.ID, audit.ActionBulkUpdateLeads, audit.TargetUser, audit.Metadata{
		"count":         n,
		"updateFields":  fields,
		"affectedLeads": affected,
	})
	s.logger.Leads().Info("Leads bulk updated", "requested", len(ids), "modified", n)
	return n, nil
}

// BulkDelete removes every listed lead and returns the number deleted.
func (s *LeadService) BulkDelete(ctx context.Context, caller Caller, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, lead.ErrNoIDs
	}
	if err := checkIDs(ids); err != nil {
		return 0, err
	}

	deleted, err := s.snapshot(ctx, ids, true)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.audit.Log(ctx, caller.ID, audit.ActionBulkDeleteLeads, audit.TargetUser, audit.Metadata{
		"count":        n,
		"leadIds":      ids,
		"deletedLeads": deleted,
		"deletedAt":    time.Now().UTC(),
	})
	s.logger.Leads().Info("Leads bulk deleted", "requested", len(ids), "deleted", n)
	return n, nil
}

func (s *LeadService) snapshot(ctx context.Context, ids []string, withStatus bool) ([]leadSnapshot, error) {
	leads, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]leadSnapshot, 0, len(leads))
	for _, l := range leads {
		snap := leadSnapshot{ID: l.ID, Name: l.Name, Email: l.Email, Contact: l.Contact}
		if withStatus {
			snap.Status = l.Status
		}
		out = append(out, snap)
	}
	return out, nil
}

func checkIDs(ids []string) error {
	for _, id := range ids {
		if !security.IsObjectID(id) {
			return lead.ErrInvalidID
		}
	}
	return nil
}
