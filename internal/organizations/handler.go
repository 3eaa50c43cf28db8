package organizations

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/pkg/response"
	"github.com/aura-booking/backend/pkg/storage"
)

// Handler handles organization HTTP endpoints. All routes operate on the
// caller's own organization taken from the JWT.
type Handler struct {
	repo *Repository
	s3   *storage.S3
}

// NewHandler creates an organizations handler. s3 may be nil when object
// storage is not configured; logo upload then returns 503.
func NewHandler(repo *Repository, s3 *storage.S3) *Handler {
	return &Handler{repo: repo, s3: s3}
}

// Get handles GET /organization.
func (h *Handler) Get(c *gin.Context) {
	claims := auth.MustClaims(c)
	org, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.NotFound(c, "organization not found")
		return
	}
	response.OK(c, org)
}

// UpdateRequest is the body for PATCH /organization.
type UpdateRequest struct {
	Name     *string `json:"name"`
	Timezone *string `json:"timezone"`
}

// Update handles PATCH /organization (admin only).
func (h *Handler) Update(c *gin.Context) {
	claims := auth.MustClaims(c)
	org, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.NotFound(c, "organization not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	name, timezone := org.Name, org.Timezone
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 255 {
			response.BadRequest(c, "name must be 1 to 255 characters")
			return
		}
	}
	if req.Timezone != nil {
		timezone = strings.TrimSpace(*req.Timezone)
	}
	if err := h.repo.Update(c.Request.Context(), org.ID, name, timezone, nil); err != nil {
		response.Internal(c, "failed to update organization")
		return
	}
	updated, _ := h.repo.GetByID(c.Request.Context(), org.ID)
	response.OK(c, updated)
}

// GetSettings handles GET /organization/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	claims := auth.MustClaims(c)
	settings, err := h.repo.GetSettings(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.Internal(c, "failed to load settings")
		return
	}
	response.OK(c, settings)
}

// SettingsRequest is the body for PUT /organization/settings.
type SettingsRequest struct {
	WhatsAppEnabled   bool `json:"whatsapp_enabled"`
	SMSEnabled        bool `json:"sms_enabled"`
	EmailEnabled      bool `json:"email_enabled"`
	ReminderLeadHours int  `json:"reminder_lead_hours" binding:"min=1,max=168"`
}

// UpdateSettings handles PUT /organization/settings (admin only).
func (h *Handler) UpdateSettings(c *gin.Context) {
	claims := auth.MustClaims(c)
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	settings, err := h.repo.GetSettings(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.Internal(c, "failed to load settings")
		return
	}
	settings.WhatsAppEnabled = req.WhatsAppEnabled
	settings.SMSEnabled = req.SMSEnabled
	settings.EmailEnabled = req.EmailEnabled
	settings.ReminderLeadHours = req.ReminderLeadHours
	if err := h.repo.UpdateSettings(c.Request.Context(), settings); err != nil {
		response.Internal(c, "failed to update settings")
		return
	}
	response.OK(c, settings)
}

// LogoUploadRequest is the body for POST /organization/logo/upload-url.
type LogoUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// GenerateLogoUploadURL handles POST /organization/logo/upload-url (admin only).
// Returns a pre-signed PUT URL; the stored logo URL is updated optimistically.
func (h *Handler) GenerateLogoUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "object storage not configured")
		return
	}
	claims := auth.MustClaims(c)
	var req LogoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename required")
		return
	}
	if !storage.ValidImageFilename(req.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	key := storage.LogoKey(claims.OrganizationID.String(), req.Filename)
	contentType := storage.ContentTypeForFilename(req.Filename)
	uploadURL, err := h.s3.PresignUpload(c.Request.Context(), key, contentType)
	if err != nil {
		response.Internal(c, "failed to generate upload URL")
		return
	}
	logoURL := h.s3.ObjectURL(key)
	if err := h.repo.UpdateLogoURL(c.Request.Context(), claims.OrganizationID, logoURL); err != nil {
		response.Internal(c, "failed to store logo URL")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   uploadURL,
		"logo_url":     logoURL,
		"content_type": contentType,
	})
}
