package handlers

import (
	"net/http"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandlers serves dashboard aggregates
type AnalyticsHandlers struct {
	analyticsService *services.AnalyticsService
	logger           *logging.ChanneledLogger
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(analyticsService *services.AnalyticsService, logger *logging.ChanneledLogger) *AnalyticsHandlers {
	return &AnalyticsHandlers{analyticsService: analyticsService, logger: logger}
}

// GetAnalytics handles GET /api/analytics
func (h *AnalyticsHandlers) GetAnalytics(c *gin.Context) {
	dashboard, err := h.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		internalError(c, h.logger.Leads(), "analytics", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
