package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// TrailHandlers serves the audit log, login history and admin activity trails
type TrailHandlers struct {
	auditService        *services.AuditService
	activityService     *services.ActivityService
	loginHistoryService *services.LoginHistoryService
	logger              *logging.ChanneledLogger
}

// NewTrailHandlers creates trail handlers with injected dependencies
func NewTrailHandlers(auditService *services.AuditService, activityService *services.ActivityService, loginHistoryService *services.LoginHistoryService, logger *logging.ChanneledLogger) *TrailHandlers {
	return &TrailHandlers{
		auditService:        auditService,
		activityService:     activityService,
		loginHistoryService: loginHistoryService,
		logger:              logger,
	}
}

// GetAuditLogs handles GET /api/audit-logs
func (h *TrailHandlers) GetAuditLogs(c *gin.Context) {
	page, err := h.auditService.List(c.Request.Context(), trailQuery(c), middleware.GetCaller(c).Role)
	if err != nil {
		internalError(c, h.logger.Audit(), "list_audit_logs", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetLoginHistory handles GET /api/login-history
func (h *TrailHandlers) GetLoginHistory(c *gin.Context) {
	page, err := h.loginHistoryService.List(c.Request.Context(), trailQuery(c))
	if err != nil {
		internalError(c, h.logger.Auth(), "list_login_history", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetAdminActivity handles GET /api/admin-activity
func (h *TrailHandlers) GetAdminActivity(c *gin.Context) {
	page, err := h.activityService.List(c.Request.Context(), trailQuery(c))
	if err != nil {
		internalError(c, h.logger.Activity(), "list_admin_activity", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// PostActivity handles POST /api/activity - client-reported dashboard activity
func (h *TrailHandlers) PostActivity(c *gin.Context) {
	var req struct {
		Action  string          `json:"action"`
		Page    string          `json:"page"`
		Details json.RawMessage `json:"details"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.activityService.Track(c.Request.Context(), middleware.GetCaller(c).ID, req.Action, req.Page, detailsText(req.Details)); err != nil {
		if errors.Is(err, audit.ErrActionRequired) {
			message(c, http.StatusBadRequest, "Action is required.")
			return
		}
		internalError(c, h.logger.Activity(), "track_activity", err)
		return
	}
	message(c, http.StatusOK, "Activity logged.")
}

// detailsText stores string details as-is and any other JSON value as its encoding.
func detailsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
