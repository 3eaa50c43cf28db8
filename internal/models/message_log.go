package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType for outbound customer notifications.
const (
	MessageTypeConfirmation = "confirmation"
	MessageTypeReminder     = "reminder"
	MessageTypeCancellation = "cancellation"
)

// MessageLogStatus for delivery attempts.
const (
	MessageLogStatusPending = "pending"
	MessageLogStatusSent    = "sent"
	MessageLogStatusFailed  = "failed"
)

// MessageLog records one outbound message attempt. Delivery is fire-and-forget:
// "sent" means the provider accepted the message, not that it was received.
type MessageLog struct {
	ID                uuid.UUID  `json:"id"`
	OrganizationID    uuid.UUID  `json:"organization_id"`
	AppointmentID     *uuid.UUID `json:"appointment_id,omitempty"`
	MessageType       string     `json:"message_type"`
	Channel           Channel    `json:"channel"`
	Recipient         string     `json:"recipient"`
	Status            string     `json:"status"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
