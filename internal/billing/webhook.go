package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 1 << 16

// Webhook handles POST /webhooks/stripe. The signature is verified before any
// byte of the payload is trusted; unverifiable requests get 400 and no state
// changes. Unrecognized event types are acknowledged so Stripe stops retrying.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "unreadable payload")
		return
	}
	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), h.cfg.WebhookSecret)
	if err != nil {
		h.logger.Warn("stripe webhook signature rejected", zap.Error(err))
		response.BadRequest(c, "invalid signature")
		return
	}

	if err := h.applyEvent(c.Request.Context(), event); err != nil {
		h.logger.Error("stripe webhook apply failed",
			zap.String("event_type", string(event.Type)), zap.Error(err))
		response.Internal(c, "failed to apply event")
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) applyEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return err
		}
		return h.applyCheckoutCompleted(ctx, &s)
	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return err
		}
		return h.applyInvoice(ctx, &inv, "invoice.paid",
			models.SubscriptionStatusActive, models.PaymentLogStatusSucceeded)
	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return err
		}
		return h.applyInvoice(ctx, &inv, "invoice.payment_failed",
			models.SubscriptionStatusPastDue, models.PaymentLogStatusFailed)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		if sub.Customer == nil {
			return nil
		}
		_, err := h.repo.UpdateStatusByStripeCustomer(ctx, sub.Customer.ID,
			models.SubscriptionStatusCanceled, nil)
		return err
	}
	h.logger.Debug("ignoring stripe event", zap.String("event_type", string(event.Type)))
	return nil
}

func (h *Handler) applyCheckoutCompleted(ctx context.Context, s *stripe.CheckoutSession) error {
	orgID, err := uuid.Parse(s.ClientReferenceID)
	if err != nil {
		// Not one of ours; ack without changes.
		h.logger.Warn("checkout session without organization reference", zap.String("session_id", s.ID))
		return nil
	}
	plan := s.Metadata["plan"]
	if plan != models.PlanStarter && plan != models.PlanPro {
		plan = models.PlanStarter
	}
	var customerID, subscriptionID string
	if s.Customer != nil {
		customerID = s.Customer.ID
	}
	if s.Subscription != nil {
		subscriptionID = s.Subscription.ID
	}
	if err := h.repo.Activate(ctx, orgID, plan, customerID, subscriptionID); err != nil {
		return err
	}
	return h.repo.CreatePaymentLog(ctx, &models.PaymentLog{
		OrganizationID: orgID,
		EventType:      "checkout.session.completed",
		AmountCents:    int(s.AmountTotal),
		Currency:       string(s.Currency),
		Status:         models.PaymentLogStatusSucceeded,
		ProviderRef:    s.ID,
	})
}

func (h *Handler) applyInvoice(ctx context.Context, inv *stripe.Invoice, eventType, subStatus, logStatus string) error {
	if inv.Customer == nil {
		return nil
	}
	var periodEnd *time.Time
	if inv.PeriodEnd > 0 {
		t := time.Unix(inv.PeriodEnd, 0).UTC()
		periodEnd = &t
	}
	orgID, err := h.repo.UpdateStatusByStripeCustomer(ctx, inv.Customer.ID, subStatus, periodEnd)
	if err != nil {
		return err
	}
	amount := inv.AmountPaid
	if logStatus == models.PaymentLogStatusFailed {
		amount = inv.AmountDue
	}
	return h.repo.CreatePaymentLog(ctx, &models.PaymentLog{
		OrganizationID: orgID,
		EventType:      eventType,
		AmountCents:    int(amount),
		Currency:       string(inv.Currency),
		Status:         logStatus,
		ProviderRef:    inv.ID,
	})
}
