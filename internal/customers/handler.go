package customers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/messaging"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
)

// Handler handles customer HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a customers handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /customers.
type CreateRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"omitempty,email"`
	Phone            string `json:"phone"`
	PreferredChannel string `json:"preferred_channel"`
	Notes            string `json:"notes"`
}

// Create handles POST /customers.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	channel := models.ChannelWhatsApp
	if req.PreferredChannel != "" {
		if !models.ValidChannel(req.PreferredChannel) {
			response.BadRequest(c, "invalid preferred_channel")
			return
		}
		channel = models.Channel(req.PreferredChannel)
	}
	claims := auth.MustClaims(c)
	cu := &models.Customer{
		OrganizationID:   claims.OrganizationID,
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            messaging.NormalizePhone(req.Phone),
		PreferredChannel: channel,
		Notes:            req.Notes,
	}
	if err := h.repo.Create(c.Request.Context(), cu); err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "a customer with this phone already exists")
			return
		}
		response.Internal(c, "failed to create customer")
		return
	}
	response.Created(c, cu)
}

// List handles GET /customers?search=.
func (h *Handler) List(c *gin.Context) {
	claims := auth.MustClaims(c)
	list, err := h.repo.List(c.Request.Context(), claims.OrganizationID, c.Query("search"))
	if err != nil {
		response.Internal(c, "failed to list customers")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /customers/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid customer id")
		return
	}
	claims := auth.MustClaims(c)
	cu, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "customer not found")
		return
	}
	response.OK(c, cu)
}

// UpdateRequest is the body for PATCH /customers/:id.
type UpdateRequest struct {
	FullName         *string `json:"full_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	PreferredChannel *string `json:"preferred_channel"`
	Notes            *string `json:"notes"`
}

// Update handles PATCH /customers/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid customer id")
		return
	}
	claims := auth.MustClaims(c)
	cu, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "customer not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if req.FullName != nil {
		cu.FullName = *req.FullName
	}
	if req.Email != nil {
		cu.Email = *req.Email
	}
	if req.Phone != nil {
		cu.Phone = messaging.NormalizePhone(*req.Phone)
	}
	if req.PreferredChannel != nil {
		if !models.ValidChannel(*req.PreferredChannel) {
			response.BadRequest(c, "invalid preferred_channel")
			return
		}
		cu.PreferredChannel = models.Channel(*req.PreferredChannel)
	}
	if req.Notes != nil {
		cu.Notes = *req.Notes
	}
	if err := h.repo.Update(c.Request.Context(), cu); err != nil {
		response.Internal(c, "failed to update customer")
		return
	}
	response.OK(c, cu)
}

// Delete handles DELETE /customers/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid customer id")
		return
	}
	claims := auth.MustClaims(c)
	if err := h.repo.Delete(c.Request.Context(), claims.OrganizationID, id); err != nil {
		response.Internal(c, "failed to delete customer")
		return
	}
	response.NoContent(c)
}
