package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

// SQLAuditRepository is the SQL-based implementation of audit.Repository.
type SQLAuditRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLAuditRepository creates a new instance of the repository.
func NewSQLAuditRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLAuditRepository {
	return &SQLAuditRepository{db: db, logger: logger}
}

// Append inserts an entry.
func (r *SQLAuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	const query = `INSERT INTO audit_logs (id, admin_id, action, target, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	metadata := e.Metadata
	if metadata == nil {
		metadata = audit.Metadata{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode audit metadata: %w", err)
	}

	start := time.Now()
	r.logger.Database().Debug("Executing audit insert", "action", e.Action, "target", e.Target)

	if _, err := r.db.ExecContext(ctx, query, e.ID, database.NullString(e.AdminID), e.Action, e.Target, string(payload), database.FormatTime(e.CreatedAt)); err != nil {
		r.logger.Database().Error("Audit insert failed", "error", err.Error(), "action", e.Action)
		return err
	}

	r.logger.Database().Debug("Audit insert completed", "id", e.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// List returns one page of entries, newest first, with the acting admin populated.
func (r *SQLAuditRepository) List(ctx context.Context, q audit.Query) ([]*audit.Entry, int64, error) {
	where, args := trailFilter(q, "created_at")

	start := time.Now()
	r.logger.Database().Debug("Listing audit logs", "page", q.Page, "limit", q.Limit)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs e`+where, args...).Scan(&total); err != nil {
		r.logger.Database().Error("Audit count failed", "error", err.Error())
		return nil, 0, err
	}

	query := `SELECT e.id, e.admin_id, e.action, e.target, e.metadata, e.created_at, a.id, a.username, a.role
		FROM audit_logs e LEFT JOIN admins a ON a.id = e.admin_id` + where +
		` ORDER BY e.created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		r.logger.Database().Error("Failed to list audit logs", "error", err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*audit.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			r.logger.Database().Error("Failed to scan audit entry", "error", err.Error())
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	r.logger.Database().Info("Audit logs listed", "count", len(entries), "total", total, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return entries, total, nil
}

func scanEntry(row scanner) (*audit.Entry, error) {
	var e audit.Entry
	var adminID, refID, refUsername, refRole sql.NullString
	var metadata, createdAt string

	if err := row.Scan(&e.ID, &adminID, &e.Action, &e.Target, &metadata, &createdAt, &refID, &refUsername, &refRole); err != nil {
		return nil, err
	}
	e.AdminID = database.StringPtr(adminID)
	if refID.Valid {
		e.Admin = &admin.Ref{ID: refID.String, Username: refUsername.String, Role: refRole.String}
	} else if e.AdminID != nil {
		// Populated reference to a deleted admin.
		e.AdminID = nil
	}
	if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
		e.Metadata = audit.Metadata{}
	}

	var err error
	if e.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}
