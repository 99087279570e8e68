package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
)

// RequestID assigns every request a ULID, echoed in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := security.GenerateULID()
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs each request on the http channel and records its
// latency under the matched route template.
func RequestLogger(logger *logging.ChanneledLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), duration.Seconds())

		log := logger.HTTP().Info
		switch {
		case status >= http.StatusInternalServerError:
			log = logger.HTTP().Error
		case status >= http.StatusBadRequest:
			log = logger.HTTP().Warn
		}
		log("Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"duration", duration,
			"clientIp", c.ClientIP(),
			requestIDKey, GetRequestID(c))
	}
}

// Recovery turns a panic into the generic 500 response.
func Recovery(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.System().Error("Unhandled panic", "panic", recovered, "path", c.Request.URL.Path, requestIDKey, GetRequestID(c))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "An unexpected internal server error occurred."})
	})
}
