package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/infrastructure/email"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []email.Message
	err  error
}

func (r *recordingMailer) SendLeadNotification(_ context.Context, msg email.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func testLead() *lead.Lead {
	return &lead.Lead{
		Name:        "Asha",
		Email:       "asha@example.com",
		Contact:     "9876543210",
		CountryCode: "+91",
		Coursename:  "Data Science",
		Location:    "Pune",
	}
}

func TestContactFormLeadEmail(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotificationService(mailer, NotificationConfig{
		ContactFormEnabled: true,
		NotificationEmail:  "ops@example.com",
		FromEmail:          "noreply@example.com",
	}, logging.NewDiscardLogger(), metrics.New())

	n.ContactFormLead(context.Background(), testLead())

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "New Lead Submission", msg.Subject)
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Equal(t, "noreply@example.com", msg.From)
	assert.Len(t, msg.Details, 5)
}

func TestContactFormLeadEmailDisabled(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotificationService(mailer, NotificationConfig{NotificationEmail: "ops@example.com"}, logging.NewDiscardLogger(), nil)

	n.ContactFormLead(context.Background(), testLead())
	assert.Empty(t, mailer.sent)
}

func TestSubmittedLeadEmail(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotificationService(mailer, NotificationConfig{
		NotificationEmail: "ops@example.com",
		SenderEmail:       "erp@example.com",
	}, logging.NewDiscardLogger(), nil)
	n.now = func() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) }

	n.SubmittedLead(context.Background(), testLead())

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "New Lead: Asha (Data Science)", msg.Subject)
	assert.Equal(t, "asha@example.com", msg.ReplyTo)
	assert.Equal(t, submitSenderName, msg.FromName)
	assert.Contains(t, msg.Text, "Contact: +91 9876543210")
	assert.Equal(t, "Submitted at: 1/2/2025, 3:04:05 PM", msg.Footer)
}

func TestSubmittedLeadEmailNeedsSender(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotificationService(mailer, NotificationConfig{NotificationEmail: "ops@example.com"}, logging.NewDiscardLogger(), nil)

	n.SubmittedLead(context.Background(), testLead())
	assert.Empty(t, mailer.sent)
}

func TestSendFailureIsSwallowed(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("provider down")}
	n := NewNotificationService(mailer, NotificationConfig{
		ContactFormEnabled: true,
		NotificationEmail:  "ops@example.com",
	}, logging.NewDiscardLogger(), metrics.New())

	assert.NotPanics(t, func() { n.ContactFormLead(context.Background(), testLead()) })
}
