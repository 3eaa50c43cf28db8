package billing

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/config"
	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
)

// Handler handles billing HTTP endpoints.
type Handler struct {
	repo   *Repository
	cfg    config.StripeConfig
	logger *zap.Logger
}

// NewHandler creates a billing handler and sets the global Stripe key.
func NewHandler(repo *Repository, cfg config.StripeConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Handler{repo: repo, cfg: cfg, logger: logger}
}

func (h *Handler) priceForPlan(plan string) string {
	switch plan {
	case models.PlanStarter:
		return h.cfg.PriceStarter
	case models.PlanPro:
		return h.cfg.PricePro
	}
	return ""
}

// GetSubscription handles GET /billing/subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	claims := auth.MustClaims(c)
	sub, err := h.repo.GetByOrg(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.Internal(c, "failed to load subscription")
		return
	}
	response.OK(c, sub)
}

// CheckoutRequest is the body for POST /billing/checkout.
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// CreateCheckout handles POST /billing/checkout (admin only). Creates a Stripe
// Checkout Session in subscription mode; the organization id travels in
// client_reference_id and metadata so the webhook can attribute the result.
func (h *Handler) CreateCheckout(c *gin.Context) {
	if h.cfg.SecretKey == "" {
		response.ServiceUnavailable(c, "billing not configured")
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "plan required")
		return
	}
	priceID := h.priceForPlan(req.Plan)
	if priceID == "" {
		response.BadRequest(c, "unknown plan")
		return
	}
	claims := auth.MustClaims(c)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(h.cfg.SuccessURL),
		CancelURL:         stripe.String(h.cfg.CancelURL),
		ClientReferenceID: stripe.String(claims.OrganizationID.String()),
	}
	params.AddMetadata("organization_id", claims.OrganizationID.String())
	params.AddMetadata("plan", req.Plan)

	s, err := session.New(params)
	if err != nil {
		h.logger.Error("stripe checkout session failed", zap.Error(err))
		response.ServiceUnavailable(c, "billing provider unavailable")
		return
	}
	response.OK(c, gin.H{"session_id": s.ID, "url": s.URL})
}

// ListPayments handles GET /billing/payments (admin only).
func (h *Handler) ListPayments(c *gin.Context) {
	claims := auth.MustClaims(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.repo.ListPayments(c.Request.Context(), claims.OrganizationID, limit)
	if err != nil {
		response.Internal(c, "failed to list payments")
		return
	}
	response.OK(c, list)
}
