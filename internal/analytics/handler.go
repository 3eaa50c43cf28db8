package analytics

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
)

// Handler handles analytics HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an analytics handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetSummary handles GET /analytics/summary?from=&to= (RFC 3339, default the
// last 30 days). Revenue appears only for admins; the figure is dropped
// before serialization for everyone else.
func (h *Handler) GetSummary(c *gin.Context) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid from timestamp")
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid to timestamp")
			return
		}
		to = t
	}

	claims := auth.MustClaims(c)
	summary, err := h.repo.Summary(c.Request.Context(), claims.OrganizationID, from, to)
	if err != nil {
		response.Internal(c, "failed to compute summary")
		return
	}
	if claims.Role == string(models.RoleAdmin) {
		cents, err := h.repo.Revenue(c.Request.Context(), claims.OrganizationID, from, to)
		if err != nil {
			response.Internal(c, "failed to compute revenue")
			return
		}
		summary.RevenueCents = &cents
	}
	response.OK(c, summary)
}
