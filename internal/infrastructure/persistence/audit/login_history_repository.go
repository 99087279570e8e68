package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

// SQLLoginHistoryRepository is the SQL-based implementation of audit.LoginHistoryRepository.
type SQLLoginHistoryRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLLoginHistoryRepository creates a new instance of the repository.
func NewSQLLoginHistoryRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLLoginHistoryRepository {
	return &SQLLoginHistoryRepository{db: db, logger: logger}
}

// Append inserts a login attempt.
func (r *SQLLoginHistoryRepository) Append(ctx context.Context, l *audit.LoginAttempt) error {
	const query = `INSERT INTO login_history (id, admin_id, ip_address, user_agent, success, login_at) VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing login history insert", "success", l.Success)

	if _, err := r.db.ExecContext(ctx, query, l.ID, database.NullString(l.AdminID), l.IPAddress, l.UserAgent, l.Success, database.FormatTime(l.LoginAt)); err != nil {
		r.logger.Database().Error("Login history insert failed", "error", err.Error())
		return err
	}

	r.logger.Database().Debug("Login history insert completed", "id", l.ID, "duration", time.Since(start))
	return nil
}

// List returns one page of attempts, newest first, with the admin populated.
func (r *SQLLoginHistoryRepository) List(ctx context.Context, q audit.Query) ([]*audit.LoginAttempt, int64, error) {
	q.Action = ""
	q.HideSuperAdminEntries = false
	where, args := trailFilter(q, "login_at")

	start := time.Now()
	r.logger.Database().Debug("Listing login history", "page", q.Page, "limit", q.Limit)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_history e`+where, args...).Scan(&total); err != nil {
		r.logger.Database().Error("Login history count failed", "error", err.Error())
		return nil, 0, err
	}

	query := `SELECT e.id, e.admin_id, e.ip_address, e.user_agent, e.success, e.login_at, a.id, a.username, a.role
		FROM login_history e LEFT JOIN admins a ON a.id = e.admin_id` + where +
		` ORDER BY e.login_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		r.logger.Database().Error("Failed to list login history", "error", err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	attempts := []*audit.LoginAttempt{}
	for rows.Next() {
		l, err := scanLoginAttempt(rows)
		if err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	r.logger.Database().Info("Login history listed", "count", len(attempts), "total", total, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return attempts, total, nil
}

func scanLoginAttempt(row scanner) (*audit.LoginAttempt, error) {
	var l audit.LoginAttempt
	var adminID, refID, refUsername, refRole sql.NullString
	var loginAt string

	if err := row.Scan(&l.ID, &adminID, &l.IPAddress, &l.UserAgent, &l.Success, &loginAt, &refID, &refUsername, &refRole); err != nil {
		return nil, err
	}
	l.AdminID = database.StringPtr(adminID)
	if refID.Valid {
		l.Admin = &admin.Ref{ID: refID.String, Username: refUsername.String, Role: refRole.String}
	} else if l.AdminID != nil {
		l.AdminID = nil
	}

	var err error
	if l.LoginAt, err = database.ParseTime(loginAt); err != nil {
		return nil, err
	}
	return &l, nil
}
