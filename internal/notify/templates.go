package notify

import (
	"fmt"
	"html"
	"strings"

	"lead-intake/internal/models"
)

type Event string

const (
	EventApplicationReceived Event = "application_received"
	EventStatusChanged       Event = "status_changed"
)

// Template holds {{key}} placeholders; unknown keys render empty.
type Template struct {
	Subject string
	Body    string
}

// DefaultTemplates are the applicant-facing messages per event.
var DefaultTemplates = map[Event]Template{
	EventApplicationReceived: {
		Subject: "We received your {{typeLabel}} application",
		Body:    "Hello {{name}}, thank you for your {{typeLabel}} application. Your reference number is {{id}}. Our team will contact you shortly.",
	},
	EventStatusChanged: {
		Subject: "Update on your application {{id}}",
		Body:    "Hello {{name}}, the status of your {{typeLabel}} application {{id}} is now {{status}}. {{notes}}",
	},
}

// Message is what a sink delivers: {to, subject, html, text}.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// TemplateData exposes a record to the templates. entry is nil for the received event.
func TemplateData(rec models.Record, entry *models.StatusEntry) map[string]interface{} {
	data := map[string]interface{}{
		"id":        rec.RecordID(),
		"name":      rec.Contact().Name,
		"category":  string(rec.RecordCategory()),
		"typeLabel": models.TypeLabel(rec),
		"status":    rec.RecordMeta().Status,
	}
	if entry != nil {
		data["status"] = entry.Status
		data["notes"] = entry.Notes
	}
	return data
}

// Render fills the template and produces both text and html bodies.
func (t Template) Render(to string, data map[string]interface{}) Message {
	text := strings.TrimSpace(renderTemplate(t.Body, data))
	return Message{
		To:      to,
		Subject: renderTemplate(t.Subject, data),
		Text:    text,
		HTML:    "<p>" + html.EscapeString(text) + "</p>",
	}
}

func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	// Drop placeholders nobody supplied.
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
