package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// GetUser returns one lead with its assignee populated.
func (s *LeadService) GetUser(ctx context.Context, id string) (*lead.View, error) {
	if !security.IsObjectID(id) {
		return nil, lead.ErrInvalidID
	}
	v, err := s.repo.FindView(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, lead.ErrNotFound
	}
	return v, nil
}

// CreateUser adds a lead from the dashboard. Any existing lead with the same
// email or contact yields lead.ErrDuplicate.
func (s *LeadService) CreateUser(ctx context.Context, caller Caller, body map[string]json.RawMessage) (*lead.Lead, error) {
	for _, field := range []lead.Field{lead.FieldName, lead.FieldEmail, lead.FieldContact} {
		if blankField(body[string(field)]) {
			return nil, lead.ErrMissingRequired
		}
	}
	changes, err := lead.ParseChanges(body, lead.FullUpdateFields)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	l := &lead.Lead{ID: security.NewObjectID(), Status: lead.StatusNew, CreatedAt: now, UpdatedAt: now}
	lead.Apply(l, changes)
	l.Normalize()

	existing, err := s.repo.FindByEmailOrContact(ctx, l.Email, l.Contact)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, lead.ErrDuplicate
	}
	if err := s.checkAssignee(ctx, changes); err != nil {
		return nil, err
	}

	if err := s.create(ctx, l, SourceDashboard); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, caller.ID, audit.ActionCreateUser, audit.TargetUser, audit.Metadata{"userId": l.ID})
	return l, nil
}

// UpdateUser applies a full-field edit and records the submitted fields.
func (s *LeadService) UpdateUser(ctx context.Context, caller Caller, id string, body map[string]json.RawMessage) (*lead.Lead, error) {
	if !security.IsObjectID(id) {
		return nil, lead.ErrInvalidID
	}
	changes, err := lead.ParseChanges(body, lead.FullUpdateFields)
	if err != nil {
		return nil, err
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, lead.ErrNotFound
	}
	if err := s.checkAssignee(ctx, changes); err != nil {
		return nil, err
	}

	lead.Apply(l, changes)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(changes))
	for _, c := range changes {
		fields[string(c.Field)] = c.Submitted
	}
	s.audit.Log(ctx, caller.ID, audit.ActionUpdateUser, audit.TargetUser, audit.Metadata{"userId": id, "updateFields": fields})
	return l, nil
}

// DeleteUser removes one lead.
func (s *LeadService) DeleteUser(ctx context.Context, caller Caller, id string) error {
	if !security.IsObjectID(id) {
		return lead.ErrInvalidID
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return lead.ErrNotFound
	}
	s.audit.Log(ctx, caller.ID, audit.ActionDeleteUser, audit.TargetUser, audit.Metadata{"userId": id})
	return nil
}

func blankField(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}
