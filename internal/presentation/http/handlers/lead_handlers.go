package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// LeadHandlers contains the public lead capture and dashboard lead handlers
type LeadHandlers struct {
	leadService *services.LeadService
	logger      *logging.ChanneledLogger
}

// NewLeadHandlers creates lead handlers with injected dependencies
func NewLeadHandlers(leadService *services.LeadService, logger *logging.ChanneledLogger) *LeadHandlers {
	return &LeadHandlers{leadService: leadService, logger: logger}
}

// PostContactForm handles POST /api/contact-form - public contact form capture
func (h *LeadHandlers) PostContactForm(c *gin.Context) {
	var form services.LeadForm
	if !bindJSON(c, &form) {
		return
	}

	if _, err := h.leadService.ContactForm(c.Request.Context(), form); err != nil {
		if errors.Is(err, lead.ErrMissingRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name, email, and contact number are required."})
			return
		}
		h.logger.Leads().Error("Contact form submission failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error submitting form. Please try again later."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Form submitted successfully!"})
}

// PostSubmit handles POST /api/submit - public registration with duplicate checks
func (h *LeadHandlers) PostSubmit(c *gin.Context) {
	var form services.LeadForm
	if !bindJSON(c, &form) {
		return
	}

	_, err := h.leadService.Submit(c.Request.Context(), form)
	switch {
	case err == nil:
		message(c, http.StatusCreated, "Registration successful! We will contact you soon.")
	case errors.Is(err, lead.ErrMissingRequired):
		message(c, http.StatusBadRequest, "Please fill in Name, Email, and Contact Number.")
	case errors.Is(err, lead.ErrDuplicateEmail):
		message(c, http.StatusBadRequest, "This email address is already registered. Please use a different email.")
	case errors.Is(err, lead.ErrDuplicateContact):
		message(c, http.StatusBadRequest, "This contact number is already registered. Please use a different number.")
	case errors.Is(err, lead.ErrDuplicate):
		message(c, http.StatusBadRequest, "This record cannot be added because of a duplicate entry.")
	case lead.IsValidation(err):
		message(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Leads().Error("Registration failed", "error", err.Error())
		message(c, http.StatusInternalServerError, "An internal server error occurred. Please try again later.")
	}
}

// GetLeads handles GET /api/leads - newest first, honoring display settings
func (h *LeadHandlers) GetLeads(c *gin.Context) {
	leads, err := h.leadService.List(c.Request.Context(), middleware.GetCaller(c), c.Query("populate") == "assignedTo")
	if err != nil {
		internalError(c, h.logger.Leads(), "list_leads", err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

// GetLeadCount handles GET /api/leads/count
func (h *LeadHandlers) GetLeadCount(c *gin.Context) {
	count, err := h.leadService.Count(c.Request.Context())
	if err != nil {
		internalError(c, h.logger.Leads(), "count_leads", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetFilteredLeads handles GET /api/leads/filter
func (h *LeadHandlers) GetFilteredLeads(c *gin.Context) {
	f := lead.Filter{
		Status:     lead.Status(c.Query("status")),
		StartDate:  parseDate(c.Query("startDate")),
		EndDate:    parseDate(c.Query("endDate")),
		Coursename: c.Query("coursename"),
		Locations:  c.QueryArray("location"),
		Search:     c.Query("search"),
	}
	switch assigned := c.Query("assignedTo"); assigned {
	case "":
	case "unassigned":
		f.Assignment = lead.AssignmentUnassigned
	case "assigned":
		f.Assignment = lead.AssignmentAssigned
	default:
		f.Assignment = lead.AssignmentTo
		f.AssignedTo = assigned
	}

	leads, err := h.leadService.Filter(c.Request.Context(), f)
	if err != nil {
		internalError(c, h.logger.Leads(), "filter_leads", err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

// PutLead handles PUT /api/leads/:id - full edit
func (h *LeadHandlers) PutLead(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	l, err := h.leadService.Update(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), body)
	if err != nil {
		h.editError(c, "update_lead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lead updated successfully.", "lead": l})
}

// PatchLead handles PATCH /api/leads/:id - role-scoped edit
func (h *LeadHandlers) PatchLead(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	l, err := h.leadService.Patch(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), body)
	if err != nil {
		h.editError(c, "patch_lead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lead updated successfully.", "lead": l})
}

// DeleteLead handles DELETE /api/leads/:id
func (h *LeadHandlers) DeleteLead(c *gin.Context) {
	if err := h.leadService.Delete(c.Request.Context(), middleware.GetCaller(c), c.Param("id")); err != nil {
		h.editError(c, "delete_lead", err)
		return
	}
	message(c, http.StatusOK, "Lead deleted successfully.")
}

func (h *LeadHandlers) editError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, lead.ErrInvalidID):
		message(c, http.StatusBadRequest, "Invalid lead ID format.")
	case errors.Is(err, lead.ErrNotFound):
		message(c, http.StatusNotFound, "Lead not found.")
	case errors.Is(err, lead.ErrEditRestricted):
		c.JSON(http.StatusForbidden, gin.H{
			"message":    "You can only edit leads assigned to you when restriction mode is enabled.",
			"restricted": true,
		})
	case lead.IsValidation(err):
		message(c, http.StatusBadRequest, err.Error())
	default:
		internalError(c, h.logger.Leads(), operation, err)
	}
}

type bulkRequest struct {
	LeadIDs    []string                   `json:"leadIds"`
	UpdateData map[string]json.RawMessage `json:"updateData"`
}

// PutBulkUpdate handles PUT /api/leads/bulk-update
func (h *LeadHandlers) PutBulkUpdate(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.leadService.BulkUpdate(c.Request.Context(), middleware.GetCaller(c), req.LeadIDs, req.UpdateData)
	if err != nil {
		h.bulkError(c, "bulk_update_leads", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Updated %d leads.", n), "modifiedCount": n})
}

// DeleteBulk handles DELETE /api/leads/bulk-delete
func (h *LeadHandlers) DeleteBulk(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.leadService.BulkDelete(c.Request.Context(), middleware.GetCaller(c), req.LeadIDs)
	if err != nil {
		h.bulkError(c, "bulk_delete_leads", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Deleted %d leads.", n), "deletedCount": n})
}

func (h *LeadHandlers) bulkError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, lead.ErrNoIDs):
		message(c, http.StatusBadRequest, "No lead IDs provided.")
	case errors.Is(err, lead.ErrNoChanges):
		message(c, http.StatusBadRequest, "No update data provided.")
	case errors.Is(err, lead.ErrInvalidID):
		message(c, http.StatusBadRequest, "Invalid lead ID format.")
	case lead.IsValidation(err):
		message(c, http.StatusBadRequest, err.Error())
	default:
		internalError(c, h.logger.Leads(), operation, err)
	}
}

// GetUser handles GET /api/users/:id
func (h *LeadHandlers) GetUser(c *gin.Context) {
	v, err := h.leadService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.userError(c, "get_user", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// PostUser handles POST /api/users
func (h *LeadHandlers) PostUser(c *gin.Context) {
	start := time.Now()
	body, ok := bindObject(c)
	if !ok {
		return
	}
	l, err := h.leadService.CreateUser(c.Request.Context(), middleware.GetCaller(c), body)
	if err != nil {
		h.userError(c, "create_user", err)
		return
	}
	h.logger.Leads().Debug("User created from dashboard", "leadId", l.ID, "duration", time.Since(start))
	c.JSON(http.StatusCreated, gin.H{"message": "User created.", "user": l})
}

// PutUser handles PUT /api/users/:id
func (h *LeadHandlers) PutUser(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	l, err := h.leadService.UpdateUser(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), body)
	if err != nil {
		h.userError(c, "update_user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated.", "user": l})
}

// DeleteUser handles DELETE /api/users/:id
func (h *LeadHandlers) DeleteUser(c *gin.Context) {
	if err := h.leadService.DeleteUser(c.Request.Context(), middleware.GetCaller(c), c.Param("id")); err != nil {
		h.userError(c, "delete_user", err)
		return
	}
	message(c, http.StatusOK, "User deleted.")
}

func (h *LeadHandlers) userError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, lead.ErrInvalidID):
		message(c, http.StatusBadRequest, "Invalid user ID.")
	case errors.Is(err, lead.ErrNotFound):
		message(c, http.StatusNotFound, "User not found.")
	case errors.Is(err, lead.ErrMissingRequired):
		message(c, http.StatusBadRequest, "Name, email, and contact are required.")
	case errors.Is(err, lead.ErrDuplicate):
		message(c, http.StatusConflict, "User with this email or contact already exists.")
	case lead.IsValidation(err):
		message(c, http.StatusBadRequest, err.Error())
	default:
		internalError(c, h.logger.Leads(), operation, err)
	}
}
