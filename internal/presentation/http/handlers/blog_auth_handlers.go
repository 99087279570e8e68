package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// BlogAuthHandlers serves blog login, blog accounts and the dashboard token exchange
type BlogAuthHandlers struct {
	blogAuthService *services.BlogAuthService
	logger          *logging.ChanneledLogger
}

// NewBlogAuthHandlers creates blog auth handlers with injected dependencies
func NewBlogAuthHandlers(blogAuthService *services.BlogAuthService, logger *logging.ChanneledLogger) *BlogAuthHandlers {
	return &BlogAuthHandlers{blogAuthService: blogAuthService, logger: logger}
}

// PostLogin handles POST /api/auth/login
func (h *BlogAuthHandlers) PostLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.blogAuthService.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": result.Token, "user": result.User})
	case errors.Is(err, services.ErrBlogCredentialsRequired):
		message(c, http.StatusBadRequest, "Username and password are required")
	case errors.Is(err, blog.ErrInvalidCredential):
		message(c, http.StatusUnauthorized, "Invalid credentials")
	default:
		internalError(c, h.logger.Blog(), "blog_login", err)
	}
}

// PostRegister handles POST /api/auth/register - always creates a plain user
func (h *BlogAuthHandlers) PostRegister(c *gin.Context) {
	var req services.NewBlogUser
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.blogAuthService.Register(c.Request.Context(), req)
	if err != nil {
		h.userError(c, "blog_register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully", "user": u.Summary()})
}

// GetValidateToken handles GET /api/auth/validate-token
func (h *BlogAuthHandlers) GetValidateToken(c *gin.Context) {
	token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "message": "No token provided"})
		return
	}
	u, err := h.blogAuthService.CurrentUser(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "message": "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": u.Summary()})
}

// PostLogout handles POST /api/auth/logout. Tokens are stateless so this only acknowledges.
func (h *BlogAuthHandlers) PostLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// GetUsers handles GET /api/auth/users
func (h *BlogAuthHandlers) GetUsers(c *gin.Context) {
	users, err := h.blogAuthService.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, h.logger.Blog(), "list_blog_users", err)
		return
	}
	if users == nil {
		users = []*blog.User{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// PostUser handles POST /api/auth/users
func (h *BlogAuthHandlers) PostUser(c *gin.Context) {
	var req services.NewBlogUser
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.blogAuthService.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.userError(c, "create_blog_user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created successfully", "user": u})
}

// DeleteUser handles DELETE /api/auth/users/:id
func (h *BlogAuthHandlers) DeleteUser(c *gin.Context) {
	err := h.blogAuthService.DeleteUser(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
	case errors.Is(err, blog.ErrProtectedUser):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Cannot delete the main admin user"})
	case errors.Is(err, blog.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
	default:
		internalError(c, h.logger.Blog(), "delete_blog_user", err)
	}
}

func (h *BlogAuthHandlers) userError(c *gin.Context, operation string, err error) {
	var failure *services.ValidationFailure
	switch {
	case errors.As(err, &failure):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Validation failed", "errors": failure.Errors})
	case errors.Is(err, blog.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Username already exists", "field": "username", "code": "DUPLICATE_USERNAME"})
	case errors.Is(err, blog.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email already exists", "field": "email", "code": "DUPLICATE_EMAIL"})
	default:
		internalError(c, h.logger.Blog(), operation, err)
	}
}

// PostBlogsAuth handles POST /api/blogs-auth - trades a dashboard token for a blog token
func (h *BlogAuthHandlers) PostBlogsAuth(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Token == "" {
		message(c, http.StatusBadRequest, "Token is required")
		return
	}

	blogToken, err := h.blogAuthService.Exchange(c.Request.Context(), req.Token)
	if err != nil {
		h.logger.Blog().Warn("Blog token exchange rejected", "error", err.Error())
		message(c, http.StatusUnauthorized, "Invalid token format")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog authentication successful", "blogToken": blogToken, "success": true})
}
