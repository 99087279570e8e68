// Package stores provides concrete cache store implementations
package stores

import (
	"context"
	"sync"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
)

type settingEntry struct {
	setting   *settings.Setting
	expiresAt time.Time
}

// SettingsStore is the in-process settings cache.
type SettingsStore struct {
	entries map[string]settingEntry
	ttl     time.Duration
	mu      sync.RWMutex
	logger  *logging.ChanneledLogger
	now     func() time.Time
}

// NewSettingsStore creates a new in-memory settings cache. A ttl of zero disables caching.
func NewSettingsStore(ttl time.Duration, logger *logging.ChanneledLogger) *SettingsStore {
	if logger != nil {
		logger.Cache().Info("Initializing settings cache store", "backend", "memory", "ttl", ttl)
	}
	return &SettingsStore{
		entries: make(map[string]settingEntry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *SettingsStore) Name() string { return "memory" }

// GetSetting retrieves a cached setting that has not expired.
func (s *SettingsStore) GetSetting(_ context.Context, key string) (*settings.Setting, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	hit := ok && s.now().Before(entry.expiresAt)
	if s.logger != nil {
		s.logger.Cache().Debug("Cache operation", "operation", "get", "type", "setting", "key", key, "hit", hit)
	}
	if !hit {
		return nil, false
	}
	copied := *entry.setting
	return &copied, true
}

// SetSetting caches a copy of setting until the ttl elapses.
func (s *SettingsStore) SetSetting(_ context.Context, setting *settings.Setting) {
	if s.ttl <= 0 || setting == nil {
		return
	}
	copied := *setting
	s.mu.Lock()
	s.entries[setting.Key] = settingEntry{setting: &copied, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Cache().Debug("Cache operation", "operation", "set", "type", "setting", "key", setting.Key)
	}
}

// InvalidateSetting drops a cached setting.
func (s *SettingsStore) InvalidateSetting(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Cache().Debug("Cache operation", "operation", "invalidate", "type", "setting", "key", key)
	}
}
