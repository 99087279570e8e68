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

// SQLActivityRepository is the SQL-based implementation of audit.ActivityRepository.
type SQLActivityRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLActivityRepository creates a new instance of the repository.
func NewSQLActivityRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLActivityRepository {
	return &SQLActivityRepository{db: db, logger: logger}
}

// Append inserts an activity entry.
func (r *SQLActivityRepository) Append(ctx context.Context, a *audit.Activity) error {
	const query = `INSERT INTO activity_logs (id, admin_id, action, page, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing activity insert", "action", a.Action)

	if _, err := r.db.ExecContext(ctx, query, a.ID, a.AdminID, a.Action, a.Page, a.Details, database.FormatTime(a.CreatedAt)); err != nil {
		r.logger.Database().Error("Activity insert failed", "error", err.Error(), "action", a.Action)
		return err
	}

	r.logger.Database().Debug("Activity insert completed", "id", a.ID, "duration", time.Since(start))
	return nil
}

// List returns one page of activity, newest first, with the admin populated.
func (r *SQLActivityRepository) List(ctx context.Context, q audit.Query) ([]*audit.Activity, int64, error) {
	q.HideSuperAdminEntries = false
	where, args := trailFilter(q, "created_at")

	start := time.Now()
	r.logger.Database().Debug("Listing admin activity", "page", q.Page, "limit", q.Limit)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs e`+where, args...).Scan(&total); err != nil {
		r.logger.Database().Error("Activity count failed", "error", err.Error())
		return nil, 0, err
	}

	query := `SELECT e.id, e.admin_id, e.action, e.page, e.details, e.created_at, a.id, a.username, a.role, a.color
		FROM activity_logs e LEFT JOIN admins a ON a.id = e.admin_id` + where +
		` ORDER BY e.created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		r.logger.Database().Error("Failed to list admin activity", "error", err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	activities := []*audit.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	r.logger.Database().Info("Admin activity listed", "count", len(activities), "total", total, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return activities, total, nil
}

func scanActivity(row scanner) (*audit.Activity, error) {
	var a audit.Activity
	var refID, refUsername, refRole, refColor sql.NullString
	var createdAt string

	if err := row.Scan(&a.ID, &a.AdminID, &a.Action, &a.Page, &a.Details, &createdAt, &refID, &refUsername, &refRole, &refColor); err != nil {
		return nil, err
	}
	if refID.Valid {
		a.Admin = &admin.Ref{ID: refID.String, Username: refUsername.String, Role: refRole.String, Color: refColor.String}
	}

	var err error
	if a.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}
