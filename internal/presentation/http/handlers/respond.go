// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "An unexpected internal server error occurred."

// internalError logs err and responds with the generic 500 body.
func internalError(c *gin.Context, log *slog.Logger, operation string, err error) {
	log.Error("Request failed", "operation", operation, "error", err.Error(), "requestId", middleware.GetRequestID(c))
	c.JSON(http.StatusInternalServerError, gin.H{"message": internalErrorMessage})
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

const malformedBodyMessage = "Malformed JSON request body."

// bindJSON decodes the body into obj. Malformed JSON is answered with 400 and
// reported as false. An empty body or mistyped fields leave obj partly zero so
// the service reports the missing fields.
func bindJSON(c *gin.Context, obj any) bool {
	if malformed(c.ShouldBindJSON(obj)) {
		message(c, http.StatusBadRequest, malformedBodyMessage)
		return false
	}
	return true
}

// bindObject decodes the body as a JSON object keyed by field name. A missing
// or non-object body yields an empty map; malformed JSON is answered with 400.
func bindObject(c *gin.Context) (map[string]json.RawMessage, bool) {
	body := map[string]json.RawMessage{}
	if err := c.ShouldBindJSON(&body); err != nil {
		if malformed(err) {
			message(c, http.StatusBadRequest, malformedBodyMessage)
			return nil, false
		}
		return map[string]json.RawMessage{}, true
	}
	return body, true
}

func malformed(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate accepts ISO-8601 dates and date-times. Unparseable or empty
// input yields nil so the bound is dropped.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// trailQuery reads the shared page, limit, date, action and adminId parameters.
func trailQuery(c *gin.Context) audit.Query {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return audit.Query{
		Page:    page,
		Limit:   limit,
		Start:   parseDate(c.Query("startDate")),
		End:     parseDate(c.Query("endDate")),
		Action:  c.Query("action"),
		AdminID: c.Query("adminId"),
	}
}
