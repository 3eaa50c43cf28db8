package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus values mirror the billing provider lifecycle.
const (
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription plans.
const (
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Subscription is the billing state of one organization.
type Subscription struct {
	ID                   uuid.UUID  `json:"id"`
	OrganizationID       uuid.UUID  `json:"organization_id"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// PaymentLogStatus values.
const (
	PaymentLogStatusSucceeded = "succeeded"
	PaymentLogStatusFailed    = "failed"
)

// PaymentLog records one billing provider event applied to a subscription.
type PaymentLog struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	EventType      string    `json:"event_type"` // provider event, e.g. invoice.paid
	AmountCents    int       `json:"amount_cents"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	ProviderRef    string    `json:"provider_ref,omitempty"` // invoice or session id
	CreatedAt      time.Time `json:"created_at"`
}
