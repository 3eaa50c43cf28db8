package messaging

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/pkg/response"
)

// Handler exposes the message log to the dashboard.
type Handler struct {
	repo *Repository
}

// NewHandler creates a messaging handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /messages?limit=.
func (h *Handler) List(c *gin.Context) {
	claims := auth.MustClaims(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.repo.List(c.Request.Context(), claims.OrganizationID, limit)
	if err != nil {
		response.Internal(c, "failed to list messages")
		return
	}
	response.OK(c, list)
}
