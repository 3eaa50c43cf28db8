package staff

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
)

// Handler handles staff HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a staff handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /staff.
type CreateRequest struct {
	DisplayName  string          `json:"display_name" binding:"required,max=255"`
	UserID       *uuid.UUID      `json:"user_id"`
	WorkingHours json.RawMessage `json:"working_hours"`
}

// Create handles POST /staff (admin or manager).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	claims := auth.MustClaims(c)
	m := &models.StaffMember{
		OrganizationID: claims.OrganizationID,
		UserID:         req.UserID,
		DisplayName:    req.DisplayName,
		WorkingHours:   req.WorkingHours,
		Active:         true,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to create staff member")
		return
	}
	response.Created(c, m)
}

// List handles GET /staff?active=true.
func (h *Handler) List(c *gin.Context) {
	claims := auth.MustClaims(c)
	list, err := h.repo.List(c.Request.Context(), claims.OrganizationID, c.Query("active") == "true")
	if err != nil {
		response.Internal(c, "failed to list staff")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /staff/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	claims := auth.MustClaims(c)
	m, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "staff member not found")
		return
	}
	response.OK(c, m)
}

// UpdateRequest is the body for PATCH /staff/:id.
type UpdateRequest struct {
	DisplayName  *string         `json:"display_name"`
	UserID       *uuid.UUID      `json:"user_id"`
	WorkingHours json.RawMessage `json:"working_hours"`
	Active       *bool           `json:"active"`
}

// Update handles PATCH /staff/:id (admin or manager).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	claims := auth.MustClaims(c)
	m, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "staff member not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if req.DisplayName != nil {
		m.DisplayName = *req.DisplayName
	}
	if req.UserID != nil {
		m.UserID = req.UserID
	}
	if len(req.WorkingHours) > 0 {
		m.WorkingHours = req.WorkingHours
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if err := h.repo.Update(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to update staff member")
		return
	}
	response.OK(c, m)
}

// Delete handles DELETE /staff/:id (admin or manager).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	claims := auth.MustClaims(c)
	if err := h.repo.Delete(c.Request.Context(), claims.OrganizationID, id); err != nil {
		response.Conflict(c, "staff member has existing appointments")
		return
	}
	response.NoContent(c)
}
