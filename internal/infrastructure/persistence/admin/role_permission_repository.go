package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

// SQLRolePermissionRepository stores permission matrices as JSON documents.
type SQLRolePermissionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRolePermissionRepository creates a new instance of the repository.
func NewSQLRolePermissionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRolePermissionRepository {
	return &SQLRolePermissionRepository{db: db, logger: logger}
}

// Count returns the number of stored matrices.
func (r *SQLRolePermissionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM role_permissions`).Scan(&n); err != nil {
		r.logger.Database().Error("Role permission count failed", "error", err.Error())
		return 0, err
	}
	return n, nil
}

// List returns every matrix in seeding order.
func (r *SQLRolePermissionRepository) List(ctx context.Context) ([]*rbac.RolePermission, error) {
	const query = `
		SELECT role, permissions FROM role_permissions
		ORDER BY CASE role WHEN 'SuperAdmin' THEN 0 WHEN 'Admin' THEN 1 WHEN 'ViewMode' THEN 2 WHEN 'EditMode' THEN 3 ELSE 4 END, role`

	start := time.Now()
	r.logger.Database().Debug("Listing role permissions")

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Failed to list role permissions", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	out := []*rbac.RolePermission{}
	for rows.Next() {
		rp, err := scanRolePermission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Info("Role permissions listed", "count", len(out), "duration", time.Since(start))
	return out, nil
}

// FindByRole returns the matrix of role, or nil.
func (r *SQLRolePermissionRepository) FindByRole(ctx context.Context, role rbac.Role) (*rbac.RolePermission, error) {
	rp, err := scanRolePermission(r.db.QueryRowContext(ctx, `SELECT role, permissions FROM role_permissions WHERE role = ?`, string(role)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load role permission", "error", err.Error(), "role", role)
		return nil, err
	}
	return rp, nil
}

// Save inserts or replaces the matrix of rp.Role.
func (r *SQLRolePermissionRepository) Save(ctx context.Context, rp *rbac.RolePermission) error {
	const query = `
		INSERT INTO role_permissions (role, permissions) VALUES (?, ?)
		ON CONFLICT(role) DO UPDATE SET permissions = excluded.permissions`

	payload, err := json.Marshal(rp.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions for %s: %w", rp.Role, err)
	}

	start := time.Now()
	r.logger.Database().Debug("Saving role permission", "role", rp.Role)

	if _, err := r.db.ExecContext(ctx, query, string(rp.Role), string(payload)); err != nil {
		r.logger.Database().Error("Role permission save failed", "error", err.Error(), "role", rp.Role)
		return err
	}

	r.logger.Database().Info("Role permission saved", "role", rp.Role, "duration", time.Since(start))
	return nil
}

func scanRolePermission(row scanner) (*rbac.RolePermission, error) {
	var role, payload string
	if err := row.Scan(&role, &payload); err != nil {
		return nil, err
	}
	rp := &rbac.RolePermission{Role: rbac.Role(role)}
	if err := json.Unmarshal([]byte(payload), &rp.Permissions); err != nil {
		return nil, fmt.Errorf("corrupt permissions for %s: %w", role, err)
	}
	return rp, nil
}
