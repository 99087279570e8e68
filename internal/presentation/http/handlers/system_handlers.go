package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

const logStreamHeartbeat = 15 * time.Second

// SystemHandlers exposes live log streaming and runtime log levels to SuperAdmins
type SystemHandlers struct {
	logger *logging.ChanneledLogger
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(logger *logging.ChanneledLogger) *SystemHandlers {
	return &SystemHandlers{logger: logger}
}

// StreamLogs handles GET /api/system/logs/stream - server-sent log events
func (h *SystemHandlers) StreamLogs(c *gin.Context) {
	broadcaster := h.logger.Broadcaster()
	if broadcaster == nil {
		message(c, http.StatusServiceUnavailable, "Log streaming is not enabled.")
		return
	}

	level, ok := strictLevel(c.DefaultQuery("level", "INFO"))
	if !ok {
		message(c, http.StatusBadRequest, "Invalid log level.")
		return
	}
	sub := broadcaster.Subscribe(logging.StreamFilter{
		Channel: logging.Channel(c.DefaultQuery("channel", "all")),
		Level:   level,
	})
	defer broadcaster.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	fmt.Fprint(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(logStreamHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-sub.C:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", entry)
			return true
		case <-heartbeat.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {\"time\":%q}\n\n", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetLogLevels handles GET /api/system/log-levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.logger.GetChannelLevels()})
}

// PutLogLevel handles PUT /api/system/log-levels
func (h *SystemHandlers) PutLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel"`
		Level   string `json:"level"`
	}
	if !bindJSON(c, &req) {
		return
	}

	level, ok := strictLevel(req.Level)
	if !ok {
		message(c, http.StatusBadRequest, "Invalid log level.")
		return
	}
	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		message(c, http.StatusBadRequest, "Unknown log channel.")
		return
	}
	h.logger.System().Info("Log level changed", "channel", req.Channel, "level", level.String())
	c.JSON(http.StatusOK, gin.H{"channels": h.logger.GetChannelLevels()})
}

// strictLevel accepts only the four slog level names.
func strictLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return 0, false
}
