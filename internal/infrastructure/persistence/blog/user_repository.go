package blog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

const userColumns = `id, username, email, password_hash, role, is_active, last_login, created_at`

// SQLUserRepository is the SQL-based implementation of blog.UserRepository.
type SQLUserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLUserRepository creates a new instance of the repository.
func NewSQLUserRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLUserRepository {
	return &SQLUserRepository{db: db, logger: logger}
}

// Create inserts a blog user. Unique violations map to blog.ErrUsernameTaken
// or blog.ErrEmailTaken.
func (r *SQLUserRepository) Create(ctx context.Context, u *blog.User) error {
	const query = `INSERT INTO blog_users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var email sql.NullString
	if u.Email != "" {
		email = sql.NullString{String: u.Email, Valid: true}
	}

	start := time.Now()
	r.logger.Database().Debug("Executing blog user insert", "id", u.ID, "username", u.Username)

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, email, u.PasswordHash, string(u.Role), u.IsActive,
		database.NullTime(u.LastLogin), database.FormatTime(u.CreatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			if strings.HasSuffix(database.UniqueViolationColumn(err), ".email") {
				return blog.ErrEmailTaken
			}
			return blog.ErrUsernameTaken
		}
		r.logger.Database().Error("Blog user insert failed", "error", err.Error(), "username", u.Username)
		return err
	}

	r.logger.Database().Info("Blog user insert completed", "id", u.ID, "duration", time.Since(start))
	return nil
}

// FindByID returns the user with id, or nil.
func (r *SQLUserRepository) FindByID(ctx context.Context, id string) (*blog.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM blog_users WHERE id = ?`, id)
}

// FindActiveByLogin matches an active user by username or email.
func (r *SQLUserRepository) FindActiveByLogin(ctx context.Context, login string) (*blog.User, error) {
	const query = `SELECT ` + userColumns + ` FROM blog_users
		WHERE is_active = 1 AND (username = ? OR lower(email) = lower(?))
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END LIMIT 1`
	return r.findOne(ctx, query, login, login, login)
}

// FindByUsername returns the user with username, or nil.
func (r *SQLUserRepository) FindByUsername(ctx context.Context, username string) (*blog.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM blog_users WHERE username = ?`, username)
}

// FindByEmail returns the user with email, or nil.
func (r *SQLUserRepository) FindByEmail(ctx context.Context, email string) (*blog.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM blog_users WHERE lower(email) = lower(?)`, email)
}

func (r *SQLUserRepository) findOne(ctx context.Context, query string, args ...any) (*blog.User, error) {
	start := time.Now()
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load blog user", "error", err.Error())
		return nil, err
	}
	r.logger.Database().Debug("Blog user loaded", "id", u.ID, "duration", time.Since(start))
	return u, nil
}

// List returns every blog user, newest first.
func (r *SQLUserRepository) List(ctx context.Context) ([]*blog.User, error) {
	const query = `SELECT ` + userColumns + ` FROM blog_users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Failed to list blog users", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	users := []*blog.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchLastLogin stamps the last successful login of a user.
func (r *SQLUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE blog_users SET last_login = ? WHERE id = ?`, database.FormatTime(at), id); err != nil {
		r.logger.Database().Error("Blog user last login update failed", "error", err.Error(), "id", id)
		return err
	}
	return nil
}

// Delete removes a user and reports whether it existed.
func (r *SQLUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blog_users WHERE id = ?`, id)
	if err != nil {
		r.logger.Database().Error("Blog user delete failed", "error", err.Error(), "id", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanUser(row scanner) (*blog.User, error) {
	var u blog.User
	var email, lastLogin sql.NullString
	var role, createdAt string

	if err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &role, &u.IsActive, &lastLogin, &createdAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Role = blog.Role(role)

	var err error
	if u.LastLogin, err = database.ScanNullTime(lastLogin); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}
