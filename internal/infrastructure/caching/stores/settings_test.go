package stores

import (
	"context"
	"testing"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/caching/interfaces"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ interfaces.SettingsCache = (*SettingsStore)(nil)
	_ interfaces.SettingsCache = (*RedisSettingsStore)(nil)
)

func TestSettingsStoreHitMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(time.Minute, logging.NewDiscardLogger())
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, ok := store.GetSetting(ctx, settings.KeyRestrictLeadEditing)
	assert.False(t, ok)

	store.SetSetting(ctx, &settings.Setting{Key: settings.KeyRestrictLeadEditing, Value: settings.BoolSetting(true)})
	got, ok := store.GetSetting(ctx, settings.KeyRestrictLeadEditing)
	require.True(t, ok)
	assert.Equal(t, settings.BoolSetting(true), got.Value)

	now = now.Add(2 * time.Minute)
	_, ok = store.GetSetting(ctx, settings.KeyRestrictLeadEditing)
	assert.False(t, ok)
}

func TestSettingsStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(time.Minute, nil)

	original := &settings.Setting{Key: "banner", Description: "before"}
	store.SetSetting(ctx, original)
	original.Description = "mutated"

	got, ok := store.GetSetting(ctx, "banner")
	require.True(t, ok)
	assert.Equal(t, "before", got.Description)

	got.Description = "changed by caller"
	again, _ := store.GetSetting(ctx, "banner")
	assert.Equal(t, "before", again.Description)
}

func TestSettingsStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(time.Minute, nil)
	store.SetSetting(ctx, &settings.Setting{Key: "banner"})
	store.InvalidateSetting(ctx, "banner")

	_, ok := store.GetSetting(ctx, "banner")
	assert.False(t, ok)
	assert.Equal(t, "memory", store.Name())
}

func TestSettingsStoreZeroTTLDisablesCaching(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(0, nil)
	store.SetSetting(ctx, &settings.Setting{Key: "banner"})

	_, ok := store.GetSetting(ctx, "banner")
	assert.False(t, ok)
}

func TestNewRedisSettingsStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisSettingsStore(context.Background(), "not-a-url", time.Minute, logging.NewDiscardLogger(), nil)
	assert.Error(t, err)
}

func TestRedisSettingsStoreDegradesToMiss(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	m := metrics.New()
	store := NewRedisSettingsStoreWithClient(client, time.Minute, logging.NewDiscardLogger(), m)
	defer store.Close()

	assert.NotPanics(t, func() {
		store.SetSetting(ctx, &settings.Setting{Key: "banner", Value: settings.GenericJSONSetting(`"hi"`)})
		store.InvalidateSetting(ctx, "banner")
	})
	_, ok := store.GetSetting(ctx, "banner")
	assert.False(t, ok)
	assert.Equal(t, "redis", store.Name())
}
