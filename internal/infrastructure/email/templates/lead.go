package templates

import (
	"bytes"
	"html/template"
	"log"
)

// LeadDetail is one labelled row of a lead notification.
type LeadDetail struct {
	Label  string
	Value  string
	Mailto bool
}

type LeadNotificationProps struct {
	Heading string
	Details []LeadDetail
	Footer  string
}

var leadNotificationTemplate = template.Must(template.New("leadNotification").Parse(`
<h3 style="font-family: Helvetica, sans-serif; margin: 0 0 16px 0;">{{.Heading}}</h3>
{{range .Details}}<p style="font-family: Helvetica, sans-serif; font-size: 16px; margin: 0 0 8px 0;"><strong>{{.Label}}:</strong> {{if .Mailto}}<a href="mailto:{{.Value}}">{{.Value}}</a>{{else}}{{.Value}}{{end}}</p>
{{end}}{{if .Footer}}<p style="font-family: Helvetica, sans-serif; font-size: 14px; margin: 16px 0 0 0;"><em>{{.Footer}}</em></p>{{end}}`))

// GetLeadNotificationContent renders the body of a new-lead email. Values are HTML-escaped.
func GetLeadNotificationContent(props LeadNotificationProps) string {
	var buf bytes.Buffer
	if err := leadNotificationTemplate.Execute(&buf, props); err != nil {
		log.Printf("Error executing lead notification template: %v", err)
		return ""
	}
	return buf.String()
}
