package services

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/pkg/response"
	"github.com/aura-booking/backend/pkg/storage"
)

// Handler handles service HTTP endpoints.
type Handler struct {
	repo *Repository
	s3   *storage.S3
}

// NewHandler creates a services handler. s3 may be nil.
func NewHandler(repo *Repository, s3 *storage.S3) *Handler {
	return &Handler{repo: repo, s3: s3}
}

// CreateRequest is the body for POST /services.
type CreateRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=5,max=1440"`
	PriceCents      int    `json:"price_cents" binding:"min=0"`
	Currency        string `json:"currency" binding:"omitempty,len=3"`
}

// Create handles POST /services (admin or manager).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	claims := auth.MustClaims(c)
	s := &models.Service{
		OrganizationID:  claims.OrganizationID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Currency:        currency,
		Active:          true,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create service")
		return
	}
	response.Created(c, s)
}

// List handles GET /services?active=true.
func (h *Handler) List(c *gin.Context) {
	claims := auth.MustClaims(c)
	list, err := h.repo.List(c.Request.Context(), claims.OrganizationID, c.Query("active") == "true")
	if err != nil {
		response.Internal(c, "failed to list services")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /services/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	claims := auth.MustClaims(c)
	s, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "service not found")
		return
	}
	response.OK(c, s)
}

// UpdateRequest is the body for PATCH /services/:id.
type UpdateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes"`
	PriceCents      *int    `json:"price_cents"`
	Currency        *string `json:"currency"`
	Active          *bool   `json:"active"`
}

// Update handles PATCH /services/:id (admin or manager).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	claims := auth.MustClaims(c)
	s, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "service not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 5 || *req.DurationMinutes > 1440 {
			response.BadRequest(c, "duration_minutes out of range")
			return
		}
		s.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			response.BadRequest(c, "price_cents must not be negative")
			return
		}
		s.PriceCents = *req.PriceCents
	}
	if req.Currency != nil {
		if len(*req.Currency) != 3 {
			response.BadRequest(c, "currency must be a 3-letter code")
			return
		}
		s.Currency = *req.Currency
	}
	if req.Active != nil {
		s.Active = *req.Active
	}
	if err := h.repo.Update(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to update service")
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /services/:id (admin or manager).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	claims := auth.MustClaims(c)
	if err := h.repo.Delete(c.Request.Context(), claims.OrganizationID, id); err != nil {
		response.Conflict(c, "service has existing appointments")
		return
	}
	response.NoContent(c)
}

// ImageUploadRequest is the body for POST /services/:id/image/upload-url.
type ImageUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// GenerateImageUploadURL handles POST /services/:id/image/upload-url.
func (h *Handler) GenerateImageUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "object storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	claims := auth.MustClaims(c)
	if _, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id); err != nil {
		response.NotFound(c, "service not found")
		return
	}
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename required")
		return
	}
	if !storage.ValidImageFilename(req.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	key := storage.ServiceImageKey(claims.OrganizationID.String(), id.String(), req.Filename)
	contentType := storage.ContentTypeForFilename(req.Filename)
	uploadURL, err := h.s3.PresignUpload(c.Request.Context(), key, contentType)
	if err != nil {
		response.Internal(c, "failed to generate upload URL")
		return
	}
	imageURL := h.s3.ObjectURL(key)
	if err := h.repo.UpdateImageURL(c.Request.Context(), claims.OrganizationID, id, imageURL); err != nil {
		response.Internal(c, "failed to store image URL")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   uploadURL,
		"image_url":    imageURL,
		"content_type": contentType,
	})
}
