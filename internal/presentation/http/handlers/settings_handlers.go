package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/settings"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SettingsHandlers exposes the feature flag store
type SettingsHandlers struct {
	settingsService *services.SettingsService
	logger          *logging.ChanneledLogger
}

// NewSettingsHandlers creates settings handlers with injected dependencies
func NewSettingsHandlers(settingsService *services.SettingsService, logger *logging.ChanneledLogger) *SettingsHandlers {
	return &SettingsHandlers{settingsService: settingsService, logger: logger}
}

type settingRequest struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

// GetSettings handles GET /api/settings
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	list, err := h.settingsService.List(c.Request.Context())
	if err != nil {
		internalError(c, h.logger.Settings(), "list_settings", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSetting handles GET /api/settings/:key
func (h *SettingsHandlers) GetSetting(c *gin.Context) {
	key := c.Param("key")
	st, err := h.settingsService.Get(c.Request.Context(), key)
	if err != nil {
		h.settingError(c, key, "get_setting", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// PostSetting handles POST /api/settings
func (h *SettingsHandlers) PostSetting(c *gin.Context) {
	var req settingRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Key == "" || settings.IsMissing(req.Value) {
		message(c, http.StatusBadRequest, "Setting key and value are required")
		return
	}

	st, err := h.settingsService.Create(c.Request.Context(), req.Key, req.Value, req.Description, middleware.GetCaller(c).ID)
	if err != nil {
		h.settingError(c, req.Key, "create_setting", err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// PutSetting handles PUT /api/settings/:key - creates the key when absent
func (h *SettingsHandlers) PutSetting(c *gin.Context) {
	var req settingRequest
	if !bindJSON(c, &req) {
		return
	}

	key := c.Param("key")
	st, err := h.settingsService.Upsert(c.Request.Context(), key, req.Value, req.Description, middleware.GetCaller(c).ID)
	if err != nil {
		h.settingError(c, key, "update_setting", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *SettingsHandlers) settingError(c *gin.Context, key, operation string, err error) {
	switch {
	case errors.Is(err, settings.ErrNotFound):
		message(c, http.StatusNotFound, fmt.Sprintf("Setting %q not found", key))
	case errors.Is(err, settings.ErrExists):
		message(c, http.StatusConflict, fmt.Sprintf("Setting %q already exists", key))
	case errors.Is(err, settings.ErrValueRequired):
		message(c, http.StatusBadRequest, "Setting value is required")
	case errors.Is(err, settings.ErrInvalidValue):
		message(c, http.StatusBadRequest, "Invalid value for this setting type")
	default:
		internalError(c, h.logger.Settings(), operation, err)
	}
}
