package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StaffMember is a bookable person in an organization. Optionally linked to a
// platform user account for dashboard access.
type StaffMember struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	DisplayName    string          `json:"display_name"`
	WorkingHours   json.RawMessage `json:"working_hours,omitempty"` // weekday -> [{start,end}] as stored
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
