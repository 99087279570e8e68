// Package interfaces defines cache operation contracts.
package interfaces

import (
	"context"

	"github.com/connectingdots/erp-backend/internal/domain/settings"
)

// SettingsCache holds recently read settings. Implementations never return
// errors: a failed cache operation degrades to a miss.
type SettingsCache interface {
	GetSetting(ctx context.Context, key string) (*settings.Setting, bool)
	SetSetting(ctx context.Context, s *settings.Setting)
	InvalidateSetting(ctx context.Context, key string)
	Name() string
}
