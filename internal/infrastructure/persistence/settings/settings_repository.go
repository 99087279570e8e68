// Package settings provides the SQL implementation of the settings repository.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

type scanner interface {
	Scan(dest ...any) error
}

// SQLSettingsRepository stores each setting value as a JSON document.
type SQLSettingsRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSettingsRepository creates a new instance of the repository.
func NewSQLSettingsRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSettingsRepository {
	return &SQLSettingsRepository{db: db, logger: logger}
}

// List returns every setting ordered by key.
func (r *SQLSettingsRepository) List(ctx context.Context) ([]*settings.Setting, error) {
	const query = `SELECT key, value, description, updated_at, updated_by FROM settings ORDER BY key`

	start := time.Now()
	r.logger.Database().Debug("Listing settings")

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Failed to list settings", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	out := []*settings.Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			r.logger.Database().Error("Failed to scan setting", "error", err.Error())
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Info("Settings listed", "count", len(out), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return out, nil
}

// Find returns the setting stored under key, or nil.
func (r *SQLSettingsRepository) Find(ctx context.Context, key string) (*settings.Setting, error) {
	const query = `SELECT key, value, description, updated_at, updated_by FROM settings WHERE key = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading setting", "key", key)

	s, err := scanSetting(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("Setting not found", "key", key)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load setting", "error", err.Error(), "key", key)
		return nil, err
	}

	r.logger.Database().Info("Setting loaded", "key", key, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return s, nil
}

// Create inserts a new setting. An existing key yields settings.ErrExists.
func (r *SQLSettingsRepository) Create(ctx context.Context, s *settings.Setting) error {
	const query = `INSERT INTO settings (key, value, description, updated_at, updated_by) VALUES (?, ?, ?, ?, ?)`

	value, err := encodeValue(s.Value)
	if err != nil {
		return err
	}

	start := time.Now()
	r.logger.Database().Debug("Executing setting insert", "key", s.Key)

	_, err = r.db.ExecContext(ctx, query, s.Key, value, s.Description, database.FormatTime(s.UpdatedAt), database.NullString(s.UpdatedBy))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return settings.ErrExists
		}
		r.logger.Database().Error("Setting insert failed", "error", err.Error(), "key", s.Key)
		return err
	}

	r.logger.Database().Info("Setting insert completed", "key", s.Key, "duration", time.Since(start))
	return nil
}

// Upsert writes the value of s, creating the key when absent. An empty
// description keeps the stored one.
func (r *SQLSettingsRepository) Upsert(ctx context.Context, s *settings.Setting) (bool, error) {
	const query = `
		INSERT INTO settings (key, value, description, updated_at, updated_by) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at, updated_by = excluded.updated_by,
			description = CASE WHEN excluded.description <> '' THEN excluded.description ELSE settings.description END`

	value, err := encodeValue(s.Value)
	if err != nil {
		return false, err
	}

	start := time.Now()
	r.logger.Database().Debug("Executing setting upsert", "key", s.Key)

	var existed bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM settings WHERE key = ?)`, s.Key).Scan(&existed); err != nil {
		r.logger.Database().Error("Setting existence check failed", "error", err.Error(), "key", s.Key)
		return false, err
	}

	if _, err := r.db.ExecContext(ctx, query, s.Key, value, s.Description, database.FormatTime(s.UpdatedAt), database.NullString(s.UpdatedBy)); err != nil {
		r.logger.Database().Error("Setting upsert failed", "error", err.Error(), "key", s.Key)
		return false, err
	}

	r.logger.Database().Info("Setting upsert completed", "key", s.Key, "existed", existed, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return existed, nil
}

func encodeValue(v settings.Value) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode setting value: %w", err)
	}
	return string(b), nil
}

func scanSetting(row scanner) (*settings.Setting, error) {
	var s settings.Setting
	var value, updatedAt string
	var updatedBy sql.NullString

	if err := row.Scan(&s.Key, &value, &s.Description, &updatedAt, &updatedBy); err != nil {
		return nil, err
	}
	s.Value = settings.Decode(s.Key, []byte(value))
	s.UpdatedBy = database.StringPtr(updatedBy)

	var err error
	if s.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
