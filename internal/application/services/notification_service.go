package services

import (
	"context"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/infrastructure/email"
	"github.com/connectingdots/erp-backend/internal/infrastructure/email/templates"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
)

const submitSenderName = "Connecting Dots ERP Notifications"

// NotificationConfig selects when and from where lead emails are sent.
type NotificationConfig struct {
	// ContactFormEnabled turns on emails for contact-form leads.
	ContactFormEnabled bool
	NotificationEmail  string
	FromEmail          string
	// SenderEmail is required for emails about /api/submit leads.
	SenderEmail string
}

// NotificationService sends best-effort new-lead emails.
type NotificationService struct {
	client  email.Service
	config  NotificationConfig
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewNotificationService creates a new notification service. A nil client disables email.
func NewNotificationService(client email.Service, cfg NotificationConfig, logger *logging.ChanneledLogger, m *metrics.Metrics) *NotificationService {
	return &NotificationService{client: client, config: cfg, logger: logger, metrics: m, now: time.Now}
}

// ContactFormLead announces a lead captured by the contact form.
func (n *NotificationService) ContactFormLead(ctx context.Context, l *lead.Lead) {
	if n.client == nil || !n.config.ContactFormEnabled {
		return
	}

	details := []templates.LeadDetail{
		{Label: "Name", Value: l.Name},
		{Label: "Email", Value: l.Email},
		{Label: "Contact", Value: l.Contact},
	}
	if l.Location != "" {
		details = append(details, templates.LeadDetail{Label: "Location", Value: l.Location})
	}
	if l.Coursename != "" {
		details = append(details, templates.LeadDetail{Label: "Course", Value: l.Coursename})
	}
	if l.AssignedTo != nil {
		details = append(details, templates.LeadDetail{Label: "Auto-assigned", Value: "Yes"})
	}

	n.send(ctx, "contact-form", email.Message{
		From:    n.config.FromEmail,
		To:      n.config.NotificationEmail,
		Subject: "New Lead Submission",
		Text:    fmt.Sprintf("New lead submitted: %s (%s, %s)", l.Name, l.Email, l.Contact),
		Heading: "New Lead Details:",
		Details: details,
	})
}

// SubmittedLead announces a lead registered through /api/submit. Replies go to the lead.
func (n *NotificationService) SubmittedLead(ctx context.Context, l *lead.Lead) {
	if n.client == nil || n.config.NotificationEmail == "" || n.config.SenderEmail == "" {
		n.logger.Email().Warn("Email notification skipped: email configuration incomplete")
		return
	}

	contact := l.Contact
	if l.CountryCode != "" {
		contact = l.CountryCode + " " + l.Contact
	}
	submitted := n.now().Format("1/2/2006, 3:04:05 PM")

	n.send(ctx, "submit", email.Message{
		From:     n.config.SenderEmail,
		FromName: submitSenderName,
		To:       n.config.NotificationEmail,
		ReplyTo:  l.Email,
		Subject:  fmt.Sprintf("New Lead: %s (%s)", l.Name, l.Coursename),
		Text: fmt.Sprintf("New lead details:\n\nName: %s\nEmail: %s\nContact: %s\nCourse: %s\nLocation: %s\nSubmitted: %s",
			l.Name, l.Email, contact, l.Coursename, l.Location, submitted),
		Heading: "New Lead Registered",
		Details: []templates.LeadDetail{
			{Label: "Name", Value: l.Name},
			{Label: "Email", Value: l.Email, Mailto: true},
			{Label: "Contact", Value: contact},
			{Label: "Course Name", Value: l.Coursename},
			{Label: "Location", Value: l.Location},
		},
		Footer: "Submitted at: " + submitted,
	})
}

func (n *NotificationService) send(ctx context.Context, source string, msg email.Message) {
	start := time.Now()
	if err := n.client.SendLeadNotification(ctx, msg); err != nil {
		n.logger.Email().Error("Failed to send lead notification", "error", err, "source", source)
		n.metrics.SideEffectFailed(metrics.SideEffectEmail)
		return
	}
	n.metrics.EmailSent()
	n.logger.Email().Info("Lead notification sent", "source", source, "duration", time.Since(start))
}
