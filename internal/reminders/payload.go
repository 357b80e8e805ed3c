// Package reminders builds the data contract consumed by the outbound
// reminder dispatcher. The clinic never sends messages itself; it hands the
// dispatcher a normalized phone number and rendered text.
package reminders

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
)

// DefaultTemplate is the reminder text used when none is configured.
const DefaultTemplate = "Hi {{.GivenName}}, this is a reminder of your {{.Treatment}} appointment with {{.Doctor}} on {{.Day}} at {{.Time}}. See you then!"

// Payload is what the dispatcher needs to send one reminder.
type Payload struct {
	AppointmentID  string `json:"appointment_id"`
	RecipientPhone string `json:"recipient_phone"`
	RenderedText   string `json:"rendered_text"`
	DeepLink       string `json:"deep_link"`
}

// Builder composes reminder payloads from the appointment and client stores.
type Builder struct {
	appts       appointments.Repository
	clients     clients.Repository
	countryCode string
	tmpl        *template.Template
}

// NewBuilder creates a Builder. tmplText may be empty to use DefaultTemplate;
// countryCode is prefixed onto phone numbers lacking a leading plus.
func NewBuilder(appts appointments.Repository, clientRepo clients.Repository, countryCode, tmplText string) (*Builder, error) {
	if tmplText == "" {
		tmplText = DefaultTemplate
	}
	t, err := template.New("reminder").Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("reminders: parse template: %w", err)
	}
	return &Builder{
		appts:       appts,
		clients:     clientRepo,
		countryCode: countryCode,
		tmpl:        t,
	}, nil
}

// Build assembles the payload for one appointment.
func (b *Builder) Build(ctx context.Context, appointmentID string) (*Payload, error) {
	appt, err := b.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("reminders: load appointment: %w", err)
	}
	client, err := b.clients.GetByID(ctx, appt.ClientID)
	if err != nil {
		return nil, fmt.Errorf("reminders: load client: %w", err)
	}

	phone, err := NormalizePhone(client.Phone, b.countryCode)
	if err != nil {
		return nil, err
	}

	text, err := b.render(appt, client)
	if err != nil {
		return nil, err
	}

	return &Payload{
		AppointmentID:  appt.ID,
		RecipientPhone: phone,
		RenderedText:   text,
		DeepLink:       deepLink(phone, text),
	}, nil
}

func (b *Builder) render(appt *appointments.Appointment, client *clients.Client) (string, error) {
	at := appt.Date.UTC()
	data := map[string]string{
		"GivenName":  client.GivenName,
		"FamilyName": client.FamilyName,
		"Treatment":  string(appt.Treatment),
		"Doctor":     appt.Doctor,
		"Day":        at.Format("Monday, 2 January 2006"),
		"Time":       at.Format("15:04"),
	}
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("reminders: render: %w", err)
	}
	return buf.String(), nil
}

// NormalizePhone strips whitespace and ensures an international prefix: a
// number already starting with "+" is kept as-is, otherwise countryCode is
// prepended.
func NormalizePhone(raw, countryCode string) (string, error) {
	cleaned := strings.Join(strings.Fields(raw), "")
	if cleaned == "" {
		return "", ErrNoPhone
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = countryCode + cleaned
	}
	return cleaned, nil
}

// deepLink builds a wa.me click-to-chat URL. wa.me wants the number without
// the plus sign.
func deepLink(phone, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s",
		strings.TrimPrefix(phone, "+"), url.QueryEscape(text))
}
