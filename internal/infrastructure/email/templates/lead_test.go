package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadNotificationEscapesValues(t *testing.T) {
	html := GetLeadNotificationContent(LeadNotificationProps{
		Heading: "New Lead Registered",
		Details: []LeadDetail{
			{Label: "Name", Value: `<script>alert("x")</script>`},
			{Label: "Email", Value: "lead@example.com", Mailto: true},
		},
		Footer: "Submitted at: 1/2/2025, 3:04:05 PM",
	})

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `<a href="mailto:lead@example.com">lead@example.com</a>`)
	assert.Contains(t, html, "<em>Submitted at: 1/2/2025, 3:04:05 PM</em>")
}

func TestLeadNotificationOmitsEmptyFooter(t *testing.T) {
	html := GetLeadNotificationContent(LeadNotificationProps{Heading: "New Lead Details:"})
	assert.False(t, strings.Contains(html, "<em>"))
}

func TestEmailLayoutEmbedsContent(t *testing.T) {
	body := GetLeadNotificationContent(LeadNotificationProps{Heading: "Hello"})
	page := GetEmailLayout(EmailLayoutProps{Preheader: "New Lead Submission", Content: body})
	assert.Contains(t, page, "<h3")
	assert.Contains(t, page, "New Lead Submission")
}
