package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService  *services.AuthService
	adminService *services.AdminService
	logger       *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, adminService *services.AdminService, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		adminService: adminService,
		logger:       logger,
	}
}

// PostAdminLogin handles POST /api/admin-login - dashboard authentication with lockout
func (h *AuthHandlers) PostAdminLogin(c *gin.Context) {
	start := time.Now()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var loginReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &loginReq) {
		return
	}

	client := services.ClientInfo{IPAddress: clientIP(c), UserAgent: c.GetHeader("User-Agent")}
	result, err := h.authService.Login(c.Request.Context(), loginReq.Username, loginReq.Password, client)
	if err != nil {
		var loginErr *services.LoginError
		switch {
		case errors.Is(err, services.ErrCredentialsRequired):
			message(c, http.StatusBadRequest, "Username and password required.")
		case errors.As(err, &loginErr):
			h.logger.Auth().Warn("Login attempt failed", "outcome", loginErr.Outcome, "duration", time.Since(start))
			message(c, http.StatusUnauthorized, loginErr.Message)
		default:
			h.logger.Auth().Error("Login failed", "error", err.Error())
			message(c, http.StatusInternalServerError, "Server error during login.")
		}
		return
	}

	h.logger.Auth().Info("Login succeeded", "role", result.Role, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}

// GetCurrentAdmin handles GET /api/current-admin - the caller's own profile
func (h *AuthHandlers) GetCurrentAdmin(c *gin.Context) {
	profile, err := h.adminService.Current(c.Request.Context(), middleware.GetCaller(c).ID)
	if err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			message(c, http.StatusNotFound, "Admin not found.")
			return
		}
		internalError(c, h.logger.Admins(), "current_admin", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// clientIP returns X-Forwarded-For verbatim when present, otherwise the peer address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return c.ClientIP()
}
