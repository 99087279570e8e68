package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/redis/go-redis/v9"
)

const redisSettingPrefix = "erp:settings:"

type redisSetting struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	UpdatedBy   *string         `json:"updatedBy,omitempty"`
}

// RedisSettingsStore caches settings in Redis so every instance sees the same invalidations.
type RedisSettingsStore struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewRedisSettingsStore connects to redisURL and verifies the connection.
func NewRedisSettingsStore(ctx context.Context, redisURL string, ttl time.Duration, logger *logging.ChanneledLogger, m *metrics.Metrics) (*RedisSettingsStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Cache().Info("Initializing settings cache store", "backend", "redis", "addr", opts.Addr, "ttl", ttl)
	return &RedisSettingsStore{client: client, ttl: ttl, logger: logger, metrics: m}, nil
}

// NewRedisSettingsStoreWithClient wraps an existing client.
func NewRedisSettingsStoreWithClient(client *redis.Client, ttl time.Duration, logger *logging.ChanneledLogger, m *metrics.Metrics) *RedisSettingsStore {
	return &RedisSettingsStore{client: client, ttl: ttl, logger: logger, metrics: m}
}

func (s *RedisSettingsStore) Name() string { return "redis" }

// GetSetting reads a cached setting. Redis failures count as misses.
func (s *RedisSettingsStore) GetSetting(ctx context.Context, key string) (*settings.Setting, bool) {
	raw, err := s.client.Get(ctx, redisSettingPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.fail("get", key, err)
		}
		return nil, false
	}

	var stored redisSetting
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.fail("decode", key, err)
		return nil, false
	}
	s.logger.Cache().Debug("Cache operation", "operation", "get", "type", "setting", "key", key, "hit", true)
	return &settings.Setting{
		Key:         stored.Key,
		Value:       settings.Decode(stored.Key, stored.Value),
		Description: stored.Description,
		UpdatedAt:   stored.UpdatedAt,
		UpdatedBy:   stored.UpdatedBy,
	}, true
}

// SetSetting stores setting with the configured ttl.
func (s *RedisSettingsStore) SetSetting(ctx context.Context, setting *settings.Setting) {
	if s.ttl <= 0 || setting == nil {
		return
	}
	value, err := json.Marshal(setting.Value)
	if err != nil {
		s.fail("encode", setting.Key, err)
		return
	}
	payload, err := json.Marshal(redisSetting{
		Key:         setting.Key,
		Value:       value,
		Description: setting.Description,
		UpdatedAt:   setting.UpdatedAt,
		UpdatedBy:   setting.UpdatedBy,
	})
	if err != nil {
		s.fail("encode", setting.Key, err)
		return
	}
	if err := s.client.Set(ctx, redisSettingPrefix+setting.Key, payload, s.ttl).Err(); err != nil {
		s.fail("set", setting.Key, err)
	}
}

// InvalidateSetting deletes the cached key.
func (s *RedisSettingsStore) InvalidateSetting(ctx context.Context, key string) {
	if err := s.client.Del(ctx, redisSettingPrefix+key).Err(); err != nil {
		s.fail("invalidate", key, err)
	}
}

// Close releases the Redis connection pool.
func (s *RedisSettingsStore) Close() error {
	return s.client.Close()
}

func (s *RedisSettingsStore) fail(operation, key string, err error) {
	s.logger.Cache().Error("Cache operation failed", "operation", operation, "type", "setting", "key", key, "error", err.Error())
	s.metrics.SideEffectFailed(metrics.SideEffectCache)
}
