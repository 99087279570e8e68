package middleware

import (
	"net/http"
	"strings"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

const (
	callerKey     = "caller"
	blogClaimsKey = "blogClaims"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// AdminAuth requires a valid dashboard token and stores the caller.
func AdminAuth(authService *services.AuthService, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
			return
		}
		claims, err := authService.VerifyToken(token)
		if err != nil {
			logger.Auth().Debug("Dashboard token rejected", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		c.Set(callerKey, services.Caller{ID: claims.ID, Role: rbac.Role(claims.Role)})
		c.Next()
	}
}

// RequireAction admits only roles the policy allows to perform action.
func RequireAction(action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rbac.Allowed(GetCaller(c).Role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

// GetCaller returns the authenticated dashboard caller, or the zero value.
func GetCaller(c *gin.Context) services.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(services.Caller); ok {
			return caller
		}
	}
	return services.Caller{}
}

// BlogAuth requires a valid blog token and stores its claims.
func BlogAuth(blogAuth *services.BlogAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing or invalid Authorization header"})
			return
		}
		claims, err := blogAuth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		c.Set(blogClaimsKey, claims)
		c.Next()
	}
}

// RequireBlogRole admits blog tokens whose role is one of roles.
func RequireBlogRole(roles ...blog.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetBlogClaims(c)
		if claims != nil {
			for _, r := range roles {
				if blog.Role(claims.Role) == r {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
	}
}

// GetBlogClaims returns the claims stored by BlogAuth, or nil.
func GetBlogClaims(c *gin.Context) *security.BlogClaims {
	if v, ok := c.Get(blogClaimsKey); ok {
		if claims, ok := v.(*security.BlogClaims); ok {
			return claims
		}
	}
	return nil
}
