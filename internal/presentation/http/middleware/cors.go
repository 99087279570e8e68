package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// OriginGuard rejects requests whose Origin header is not in the allow-list.
// Requests without an Origin header (curl, server-to-server) pass.
func OriginGuard(allowedOrigins []string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			c.Next()
			return
		}
		logger.HTTP().Warn("CORS blocked request", "origin", origin, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied by CORS policy."})
	}
}

// CORSMiddleware answers preflight requests and sets CORS headers for the allow-list.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return slices.Contains(allowedOrigins, origin)
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", RequestIDHeader,
		},
		AllowCredentials: true,
		ExposeHeaders: []string{
			"Content-Type", RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}

	return cors.New(config)
}
