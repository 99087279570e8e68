package handlers

import (
	"errors"
	"net/http"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AdminHandlers manages dashboard accounts and role permission matrices
type AdminHandlers struct {
	adminService          *services.AdminService
	rolePermissionService *services.RolePermissionService
	logger                *logging.ChanneledLogger
}

// NewAdminHandlers creates admin handlers with injected dependencies
func NewAdminHandlers(adminService *services.AdminService, rolePermissionService *services.RolePermissionService, logger *logging.ChanneledLogger) *AdminHandlers {
	return &AdminHandlers{
		adminService:          adminService,
		rolePermissionService: rolePermissionService,
		logger:                logger,
	}
}

// PostAdmin handles POST /api/admins
func (h *AdminHandlers) PostAdmin(c *gin.Context) {
	var req services.NewAdmin
	if !bindJSON(c, &req) {
		return
	}

	acct, err := h.adminService.Create(c.Request.Context(), middleware.GetCaller(c), req)
	if err != nil {
		h.adminError(c, "create_admin", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Admin created.", "admin": services.SummarizeAdmin(acct, false)})
}

// GetAdmins handles GET /api/admins
func (h *AdminHandlers) GetAdmins(c *gin.Context) {
	admins, err := h.adminService.List(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.logger.Admins().Error("Failed to fetch admin list", "error", err.Error())
		message(c, http.StatusInternalServerError, "Failed to fetch admin list.")
		return
	}
	c.JSON(http.StatusOK, admins)
}

// PutAdmin handles PUT /api/admins/:id
func (h *AdminHandlers) PutAdmin(c *gin.Context) {
	var req services.AdminChanges
	if !bindJSON(c, &req) {
		return
	}

	acct, err := h.adminService.Update(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), req)
	if err != nil {
		h.adminError(c, "update_admin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin updated.", "admin": services.SummarizeAdmin(acct, true)})
}

// DeleteAdmin handles DELETE /api/admins/:id
func (h *AdminHandlers) DeleteAdmin(c *gin.Context) {
	if err := h.adminService.Delete(c.Request.Context(), middleware.GetCaller(c), c.Param("id")); err != nil {
		h.adminError(c, "delete_admin", err)
		return
	}
	message(c, http.StatusOK, "Admin deleted.")
}

func (h *AdminHandlers) adminError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, admin.ErrMissingFields):
		message(c, http.StatusBadRequest, "Username, password, and role are required.")
	case errors.Is(err, admin.ErrInvalidRole):
		message(c, http.StatusBadRequest, "Invalid role.")
	case errors.Is(err, admin.ErrInvalidOffice):
		message(c, http.StatusBadRequest, "Invalid location.")
	case errors.Is(err, admin.ErrUsernameTaken):
		message(c, http.StatusConflict, "Username already exists.")
	case errors.Is(err, admin.ErrSelfDelete):
		message(c, http.StatusForbidden, "You cannot delete yourself.")
	case errors.Is(err, admin.ErrNotFound):
		message(c, http.StatusNotFound, "Admin not found.")
	default:
		internalError(c, h.logger.Admins(), operation, err)
	}
}

// GetRolePermissions handles GET /api/role-permissions
func (h *AdminHandlers) GetRolePermissions(c *gin.Context) {
	permissions, err := h.rolePermissionService.List(c.Request.Context())
	if err != nil {
		internalError(c, h.logger.Admins(), "list_role_permissions", err)
		return
	}
	c.JSON(http.StatusOK, permissions)
}

// PutRolePermission handles PUT /api/role-permissions/:role
func (h *AdminHandlers) PutRolePermission(c *gin.Context) {
	var req struct {
		Permissions *rbac.Permissions `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Permissions are required.")
		return
	}

	rp, err := h.rolePermissionService.Update(c.Request.Context(), middleware.GetCaller(c), c.Param("role"), req.Permissions)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Role permissions updated.", "permission": rp})
	case errors.Is(err, services.ErrPermissionsRequired):
		message(c, http.StatusBadRequest, "Permissions are required.")
	case errors.Is(err, rbac.ErrRoleNotEditable):
		message(c, http.StatusBadRequest, "Cannot modify SuperAdmin permissions.")
	case errors.Is(err, rbac.ErrRoleNotFound):
		message(c, http.StatusNotFound, "Role not found.")
	default:
		internalError(c, h.logger.Admins(), "update_role_permissions", err)
	}
}
