package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant: one salon or service business.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   string    `json:"logo_url,omitempty"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationSettings controls which channels an organization sends on and
// how far ahead of an appointment reminders go out.
type NotificationSettings struct {
	OrganizationID    uuid.UUID `json:"organization_id"`
	WhatsAppEnabled   bool      `json:"whatsapp_enabled"`
	SMSEnabled        bool      `json:"sms_enabled"`
	EmailEnabled      bool      `json:"email_enabled"`
	ReminderLeadHours int       `json:"reminder_lead_hours"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultNotificationSettings returns settings used until an organization saves its own.
func DefaultNotificationSettings(orgID uuid.UUID) NotificationSettings {
	return NotificationSettings{
		OrganizationID:    orgID,
		WhatsAppEnabled:   true,
		SMSEnabled:        true,
		EmailEnabled:      true,
		ReminderLeadHours: 24,
	}
}
