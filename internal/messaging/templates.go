package messaging

import (
	"fmt"
	"time"

	"github.com/aura-booking/backend/internal/models"
)

// TemplateData carries everything a notification template needs.
type TemplateData struct {
	OrganizationName string
	CustomerName     string
	ServiceName      string
	StaffName        string
	StartsAt         time.Time
	Timezone         string // IANA name; invalid or empty falls back to UTC
	CancelReason     string
}

func (d TemplateData) localStart() string {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil || d.Timezone == "" {
		loc = time.UTC
	}
	return d.StartsAt.In(loc).Format("Mon, 2 Jan 2006 at 15:04")
}

// RenderText returns the plain-text body for a message type. Used for both
// WhatsApp and SMS; email wraps the same body with a subject line.
func RenderText(messageType string, d TemplateData) string {
	switch messageType {
	case models.MessageTypeConfirmation:
		return fmt.Sprintf("Hi %s! Your %s appointment with %s at %s is confirmed for %s. See you then!",
			d.CustomerName, d.ServiceName, d.StaffName, d.OrganizationName, d.localStart())
	case models.MessageTypeReminder:
		return fmt.Sprintf("Hi %s, a reminder from %s: your %s appointment with %s is on %s.",
			d.CustomerName, d.OrganizationName, d.ServiceName, d.StaffName, d.localStart())
	case models.MessageTypeCancellation:
		msg := fmt.Sprintf("Hi %s, your %s appointment at %s on %s has been cancelled.",
			d.CustomerName, d.ServiceName, d.OrganizationName, d.localStart())
		if d.CancelReason != "" {
			msg += " Reason: " + d.CancelReason
		}
		return msg
	}
	return ""
}

// RenderSubject returns the email subject line for a message type.
func RenderSubject(messageType string, d TemplateData) string {
	switch messageType {
	case models.MessageTypeConfirmation:
		return fmt.Sprintf("Appointment confirmed - %s", d.OrganizationName)
	case models.MessageTypeReminder:
		return fmt.Sprintf("Appointment reminder - %s", d.OrganizationName)
	case models.MessageTypeCancellation:
		return fmt.Sprintf("Appointment cancelled - %s", d.OrganizationName)
	}
	return d.OrganizationName
}
