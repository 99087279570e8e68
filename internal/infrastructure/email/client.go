// Package email provides the email client for sending transactional emails.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/connectingdots/erp-backend/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

var ErrMissingAPIKey = errors.New("RESEND_API_KEY is required")

// Message is a rendered notification ready for delivery.
type Message struct {
	From     string
	FromName string
	To       string
	ReplyTo  string
	Subject  string
	Text     string
	Heading  string
	Details  []templates.LeadDetail
	Footer   string
}

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendLeadNotification(ctx context.Context, msg Message) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client *resend.Client
}

// NewService creates a new email service client, returning the Service interface.
func NewService(apiKey string) (Service, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &ResendClient{client: resend.NewClient(apiKey)}, nil
}

// SendLeadNotification composes and sends a new-lead notification.
func (c *ResendClient) SendLeadNotification(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := templates.GetLeadNotificationContent(templates.LeadNotificationProps{
		Heading: msg.Heading,
		Details: msg.Details,
		Footer:  msg.Footer,
	})
	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: msg.Subject,
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    formatSender(msg.FromName, msg.From),
		To:      []string{msg.To},
		Subject: msg.Subject,
		ReplyTo: msg.ReplyTo,
		Html:    htmlContent,
		Text:    msg.Text,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send lead notification via Resend: %w", err)
	}
	return nil
}

func formatSender(name, address string) string {
	if strings.TrimSpace(name) == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
