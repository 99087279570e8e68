// Package admin provides the SQL implementations of the admin and role
// permission repositories.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

const adminColumns = `id, username, password_hash, email, role, active, location, color,
	last_login, created_at, created_by, login_attempts`

type scanner interface {
	Scan(dest ...any) error
}

// SQLAdminRepository is the SQL-based implementation of admin.Repository.
type SQLAdminRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLAdminRepository creates a new instance of the repository.
func NewSQLAdminRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLAdminRepository {
	return &SQLAdminRepository{db: db, logger: logger}
}

// Create inserts a new admin. A taken username yields admin.ErrUsernameTaken.
func (r *SQLAdminRepository) Create(ctx context.Context, a *admin.Admin) error {
	const query = `
		INSERT INTO admins (id, username, password_hash, email, role, active, location, color,
		                    last_login, created_at, created_by, login_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing admin insert", "id", a.ID, "username", a.Username)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.Email, string(a.Role), a.Active, string(a.Location), a.Color,
		database.NullTime(a.LastLogin), database.FormatTime(a.CreatedAt), database.NullString(a.CreatedBy), a.LoginAttempts,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return admin.ErrUsernameTaken
		}
		r.logger.Database().Error("Admin insert failed", "error", err.Error(), "username", a.Username)
		return err
	}

	r.logger.Database().Info("Admin insert completed", "id", a.ID, "username", a.Username, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindByID returns the admin with id, active or not, or nil.
func (r *SQLAdminRepository) FindByID(ctx context.Context, id string) (*admin.Admin, error) {
	return r.findOne(ctx, "by ID", `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
}

// FindByLogin matches the username exactly or the email case-insensitively.
func (r *SQLAdminRepository) FindByLogin(ctx context.Context, login string) (*admin.Admin, error) {
	const query = `SELECT ` + adminColumns + ` FROM admins
		WHERE username = ? OR (email <> '' AND lower(email) = lower(?))
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END LIMIT 1`
	return r.findOne(ctx, "by login", query, login, login, login)
}

// FindByUsername returns the admin with username, or nil.
func (r *SQLAdminRepository) FindByUsername(ctx context.Context, username string) (*admin.Admin, error) {
	return r.findOne(ctx, "by username", `SELECT `+adminColumns+` FROM admins WHERE username = ?`, username)
}

// FindActive returns the admin with id only when the account is active.
func (r *SQLAdminRepository) FindActive(ctx context.Context, id string) (*admin.Admin, error) {
	return r.findOne(ctx, "active by ID", `SELECT `+adminColumns+` FROM admins WHERE id = ? AND active = 1`, id)
}

func (r *SQLAdminRepository) findOne(ctx context.Context, lookup, query string, args ...any) (*admin.Admin, error) {
	start := time.Now()
	r.logger.Database().Debug("Loading admin", "lookup", lookup)

	a, err := scanAdmin(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("Admin not found", "lookup", lookup)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load admin", "error", err.Error(), "lookup", lookup)
		return nil, err
	}

	r.logger.Database().Info("Admin loaded", "lookup", lookup, "id", a.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return a, nil
}

// List returns every admin, newest first, leaving out excludeRole when set.
func (r *SQLAdminRepository) List(ctx context.Context, excludeRole rbac.Role) ([]*admin.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins`
	var args []any
	if excludeRole != "" {
		query += ` WHERE role <> ?`
		args = append(args, string(excludeRole))
	}
	query += ` ORDER BY created_at DESC`

	start := time.Now()
	r.logger.Database().Debug("Listing admins", "excludeRole", excludeRole)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to list admins", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	admins := []*admin.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			r.logger.Database().Error("Failed to scan admin", "error", err.Error())
			return nil, err
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Info("Admins listed", "count", len(admins), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return admins, nil
}

// Update writes every mutable field of a.
func (r *SQLAdminRepository) Update(ctx context.Context, a *admin.Admin) error {
	const query = `
		UPDATE admins
		SET username = ?, password_hash = ?, email = ?, role = ?, active = ?, location = ?, color = ?,
		    last_login = ?, login_attempts = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing admin update", "id", a.ID)

	res, err := r.db.ExecContext(ctx, query,
		a.Username, a.PasswordHash, a.Email, string(a.Role), a.Active, string(a.Location), a.Color,
		database.NullTime(a.LastLogin), a.LoginAttempts, a.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return admin.ErrUsernameTaken
		}
		r.logger.Database().Error("Admin update failed", "error", err.Error(), "id", a.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return admin.ErrNotFound
	}

	r.logger.Database().Info("Admin update completed", "id", a.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// Delete removes an admin and reports whether it existed.
func (r *SQLAdminRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM admins WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing admin delete", "id", id)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Database().Error("Admin delete failed", "error", err.Error(), "id", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	r.logger.Database().Info("Admin delete completed", "id", id, "deleted", n, "duration", time.Since(start))
	return n > 0, nil
}

// Count returns the number of admins.
func (r *SQLAdminRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM admins`)
}

// CountActive returns the number of active admins.
func (r *SQLAdminRepository) CountActive(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM admins WHERE active = 1`)
}

func (r *SQLAdminRepository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		r.logger.Database().Error("Admin count failed", "error", err.Error())
		return 0, err
	}
	return n, nil
}

// CountByRole counts admins per role.
func (r *SQLAdminRepository) CountByRole(ctx context.Context) ([]admin.RoleCount, error) {
	const query = `SELECT role, COUNT(*) FROM admins GROUP BY role ORDER BY COUNT(*) DESC, role`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Admin aggregate failed", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	counts := []admin.RoleCount{}
	for rows.Next() {
		var rc admin.RoleCount
		if err := rows.Scan(&rc.ID, &rc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, "AGGREGATE_ADMINS_BY_ROLE", time.Since(start))
	return counts, nil
}

func scanAdmin(row scanner) (*admin.Admin, error) {
	var a admin.Admin
	var role, location, createdAt string
	var lastLogin, createdBy sql.NullString

	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Email, &role, &a.Active, &location, &a.Color,
		&lastLogin, &createdAt, &createdBy, &a.LoginAttempts,
	)
	if err != nil {
		return nil, err
	}

	a.Role = rbac.Role(role)
	a.Location = admin.Location(location)
	a.CreatedBy = database.StringPtr(createdBy)
	if a.LastLogin, err = database.ScanNullTime(lastLogin); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}
