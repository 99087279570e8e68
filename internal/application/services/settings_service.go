package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/caching/interfaces"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
)

// SettingsService reads and writes the feature flag store through the settings cache.
type SettingsService struct {
	repo   settings.Repository
	cache  interfaces.SettingsCache
	audit  *AuditService
	logger *logging.ChanneledLogger
}

// NewSettingsService creates a new settings service. cache may be nil.
func NewSettingsService(repo settings.Repository, cache interfaces.SettingsCache, auditSvc *AuditService, logger *logging.ChanneledLogger) *SettingsService {
	return &SettingsService{repo: repo, cache: cache, audit: auditSvc, logger: logger}
}

// List returns every setting ordered by key.
func (s *SettingsService) List(ctx context.Context) ([]*settings.Setting, error) {
	return s.repo.List(ctx)
}

// Get returns the setting stored under key, or settings.ErrNotFound.
func (s *SettingsService) Get(ctx context.Context, key string) (*settings.Setting, error) {
	st, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, settings.ErrNotFound
	}
	return st, nil
}

// lookup returns the setting under key, or nil when absent.
func (s *SettingsService) lookup(ctx context.Context, key string) (*settings.Setting, error) {
	if s.cache != nil {
		if st, ok := s.cache.GetSetting(ctx, key); ok {
			return st, nil
		}
	}
	st, err := s.repo.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load setting %q: %w", key, err)
	}
	if st != nil && s.cache != nil {
		s.cache.SetSetting(ctx, st)
	}
	return st, nil
}

// Create adds a new key. Existing keys are rejected before the value is validated.
func (s *SettingsService) Create(ctx context.Context, key string, raw json.RawMessage, description, adminID string) (*settings.Setting, error) {
	if key == "" || settings.IsMissing(raw) {
		return nil, settings.ErrValueRequired
	}
	existing, err := s.repo.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, settings.ErrExists
	}

	value, err := settings.Parse(key, raw)
	if err != nil {
		return nil, err
	}

	st := &settings.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
		UpdatedBy:   optionalID(adminID),
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)

	s.audit.Log(ctx, adminID, audit.ActionCreate, audit.TargetSetting, audit.Metadata{"key": key, "value": value})
	s.logger.Settings().Info("Setting created", "key", key, "kind", value.Kind())
	return st, nil
}

// Upsert writes key, creating it when absent. The audit action is create or
// update depending on whether the key existed.
func (s *SettingsService) Upsert(ctx context.Context, key string, raw json.RawMessage, description, adminID string) (*settings.Setting, error) {
	value, err := settings.Parse(key, raw)
	if err != nil {
		return nil, err
	}

	previous, err := s.repo.Find(ctx, key)
	if err != nil {
		return nil, err
	}

	st := &settings.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
		UpdatedBy:   optionalID(adminID),
	}
	existed, err := s.repo.Upsert(ctx, st)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)

	action := audit.ActionCreate
	metadata := audit.Metadata{"key": key, "newValue": value}
	if existed {
		action = audit.ActionUpdate
	}
	if previous != nil {
		metadata["oldValue"] = previous.Value
	}
	s.audit.Log(ctx, adminID, action, audit.TargetSetting, metadata)
	s.logger.Settings().Info("Setting saved", "key", key, "kind", value.Kind(), "created", !existed)

	saved, err := s.repo.Find(ctx, key)
	if err != nil || saved == nil {
		return st, nil
	}
	return saved, nil
}

func (s *SettingsService) invalidate(ctx context.Context, key string) {
	if s.cache != nil {
		s.cache.InvalidateSetting(ctx, key)
	}
}

// Flag reports whether the setting under key is switched on. Read failures count as off.
func (s *SettingsService) Flag(ctx context.Context, key string) bool {
	st, err := s.lookup(ctx, key)
	if err != nil {
		s.logger.Settings().Error("Failed to read flag", "key", key, "error", err)
		return false
	}
	if st == nil {
		return false
	}
	return settings.Truthy(st.Value)
}

// Number returns the numeric setting under key, or 0.
func (s *SettingsService) Number(ctx context.Context, key string) float64 {
	st, err := s.lookup(ctx, key)
	if err != nil {
		s.logger.Settings().Error("Failed to read number setting", "key", key, "error", err)
		return 0
	}
	if st == nil {
		return 0
	}
	return settings.Number(st.Value)
}

// LocationAssignments returns the admin to locations mapping in stored order.
func (s *SettingsService) LocationAssignments(ctx context.Context) (settings.LocationAssignmentSetting, error) {
	st, err := s.lookup(ctx, settings.KeyLocationAssignments)
	if err != nil || st == nil {
		return nil, err
	}
	mapping, _ := st.Value.(settings.LocationAssignmentSetting)
	return mapping, nil
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
