package assistant

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/internal/analytics"
	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
)

// OrganizationNamer resolves the organization name for the prompt.
type OrganizationNamer interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// Handler handles the assistant chat endpoint.
type Handler struct {
	provider  Provider
	analytics *analytics.Repository
	orgs      OrganizationNamer
	logger    *zap.Logger
}

// NewHandler creates an assistant handler. provider may be nil when the
// assistant is not configured; chat then returns 503.
func NewHandler(provider Provider, analyticsRepo *analytics.Repository, orgs OrganizationNamer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{provider: provider, analytics: analyticsRepo, orgs: orgs, logger: logger}
}

// ChatRequest is the body for POST /assistant/chat.
type ChatRequest struct {
	Message string     `json:"message" binding:"required,max=4000"`
	History []ChatTurn `json:"history" binding:"max=20"`
}

// Chat handles POST /assistant/chat. The prompt carries the organization's
// activity summary; revenue is fetched only for admins so it never reaches the
// model for other roles.
func (h *Handler) Chat(c *gin.Context) {
	if h.provider == nil {
		response.ServiceUnavailable(c, "assistant not configured")
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	claims := auth.MustClaims(c)
	ctx := c.Request.Context()

	org, err := h.orgs.GetByID(ctx, claims.OrganizationID)
	if err != nil {
		response.Internal(c, "failed to load organization")
		return
	}

	now := time.Now().UTC()
	summary, err := h.analytics.Summary(ctx, claims.OrganizationID, now.AddDate(0, 0, -30), now.AddDate(0, 0, 30))
	if err != nil {
		h.logger.Warn("assistant summary failed, continuing without data", zap.Error(err))
		summary = nil
	}
	if summary != nil && claims.Role == string(models.RoleAdmin) {
		if cents, err := h.analytics.Revenue(ctx, claims.OrganizationID, summary.From, summary.To); err == nil {
			summary.RevenueCents = &cents
		}
	}

	reply, err := h.provider.Chat(ctx, BuildSystemPrompt(org.Name, summary), req.History, req.Message)
	if err != nil {
		h.logger.Error("assistant provider failed", zap.Error(err))
		response.ServiceUnavailable(c, "assistant temporarily unavailable")
		return
	}
	response.OK(c, gin.H{"reply": reply})
}
