package services

import (
	"context"
	"errors"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
)

// ErrPermissionsRequired is returned when an update carries no permission matrix.
var ErrPermissionsRequired = errors.New("permissions are required")

// RolePermissionService reads and edits the stored permission matrices.
type RolePermissionService struct {
	repo   rbac.RolePermissionRepository
	audit  *AuditService
	logger *logging.ChanneledLogger
}

// NewRolePermissionService creates a new role permission service
func NewRolePermissionService(repo rbac.RolePermissionRepository, auditSvc *AuditService, logger *logging.ChanneledLogger) *RolePermissionService {
	return &RolePermissionService{repo: repo, audit: auditSvc, logger: logger}
}

// List returns the matrix of every role.
func (s *RolePermissionService) List(ctx context.Context) ([]*rbac.RolePermission, error) {
	return s.repo.List(ctx)
}

// Update replaces the matrix of role. SuperAdmin and unknown roles are not editable.
func (s *RolePermissionService) Update(ctx context.Context, caller Caller, role string, permissions *rbac.Permissions) (*rbac.RolePermission, error) {
	if permissions == nil {
		return nil, ErrPermissionsRequired
	}
	r, ok := rbac.ParseRole(role)
	if !ok || !rbac.Editable(r) {
		return nil, rbac.ErrRoleNotEditable
	}

	rp, err := s.repo.FindByRole(ctx, r)
	if err != nil {
		return nil, err
	}
	if rp == nil {
		return nil, rbac.ErrRoleNotFound
	}
	rp.Permissions = *permissions
	if err := s.repo.Save(ctx, rp); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller.ID, audit.ActionUpdateRolePermissions, audit.TargetRolePermission, audit.Metadata{
		"role":        string(r),
		"permissions": rp.Permissions,
	})
	s.logger.Admins().Info("Role permissions updated", "role", r, "adminId", logging.MaskID(caller.ID))
	return rp, nil
}
