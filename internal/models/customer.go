package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel is a customer's preferred notification channel.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelNone     Channel = "none"
)

// ValidChannel reports whether s is a known notification channel.
func ValidChannel(s string) bool {
	switch Channel(s) {
	case ChannelWhatsApp, ChannelSMS, ChannelEmail, ChannelNone:
		return true
	}
	return false
}

// Customer is an end customer of one organization.
type Customer struct {
	ID               uuid.UUID `json:"id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"` // normalized toward E.164 at write time
	PreferredChannel Channel   `json:"preferred_channel"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
