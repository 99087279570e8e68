// Package settings is the database-backed feature flag store.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("setting not found")
	ErrExists        = errors.New("setting already exists")
	ErrInvalidValue  = errors.New("invalid value for this setting type")
	ErrValueRequired = errors.New("setting value is required")
)

const (
	KeyRestrictLeadEditing     = "restrictLeadEditing"
	KeyRestrictCounselorView   = "restrictCounselorView"
	KeyMaxLeadsToDisplay       = "maxLeadsToDisplay"
	KeyLocationBasedAssignment = "locationBasedAssignment"
	KeyLocationAssignments     = "locationAssignments"
)

// Setting is one stored key.
type Setting struct {
	Key         string    `json:"key"`
	Value       Value     `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedBy   *string   `json:"updatedBy,omitempty"`
}

// Default is a setting created at startup when its key is absent.
type Default struct {
	Key         string
	Value       Value
	Description string
}

// Defaults returns the seeded settings.
func Defaults() []Default {
	return []Default{
		{
			Key:         KeyRestrictLeadEditing,
			Value:       BoolSetting(false),
			Description: "When enabled, only admins or assigned users can edit lead status and contacted fields",
		},
		{
			Key:         KeyRestrictCounselorView,
			Value:       BoolSetting(false),
			Description: "When enabled, counselors can only see leads assigned to them",
		},
		{
			Key:         KeyMaxLeadsToDisplay,
			Value:       NumberSetting(0),
			Description: "Maximum number of leads to display on the dashboard (0 shows all leads)",
		},
		{
			Key:         KeyLocationBasedAssignment,
			Value:       BoolSetting(false),
			Description: "When enabled, leads will be automatically assigned to counselors based on their location",
		},
		{
			Key:         KeyLocationAssignments,
			Value:       LocationAssignmentSetting{},
			Description: "Location to counselor mapping for automatic assignment",
		},
	}
}

// Truthy follows the loose flag semantics of the dashboard: false, 0, "",
// null and missing values are off; everything else is on.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case BoolSetting:
		return bool(t)
	case NumberSetting:
		return t != 0
	case LocationAssignmentSetting:
		return true
	case GenericJSONSetting:
		var decoded any
		if err := json.Unmarshal(t, &decoded); err != nil {
			return false
		}
		switch d := decoded.(type) {
		case nil:
			return false
		case bool:
			return d
		case float64:
			return d != 0
		case string:
			return d != ""
		}
		return true
	}
	return false
}

// Number returns v as a number, or 0 when it is not numeric.
func Number(v Value) float64 {
	if n, ok := v.(NumberSetting); ok {
		return float64(n)
	}
	return 0
}

// Repository persists settings.
type Repository interface {
	List(ctx context.Context) ([]*Setting, error)
	Find(ctx context.Context, key string) (*Setting, error)
	Create(ctx context.Context, s *Setting) error
	// Upsert writes s and reports whether the key already existed.
	Upsert(ctx context.Context, s *Setting) (bool, error)
}
