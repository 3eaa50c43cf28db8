package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/internal/messaging"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/internal/realtime"
	"github.com/aura-booking/backend/pkg/queue"
	"github.com/aura-booking/backend/pkg/response"
)

// OrganizationSource resolves the tenant behind a public booking slug.
type OrganizationSource interface {
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

// CustomerStore finds or creates customers for public bookings.
type CustomerStore interface {
	GetByPhone(ctx context.Context, orgID uuid.UUID, phone string) (*models.Customer, error)
	Create(ctx context.Context, cu *models.Customer) error
}

// ServiceLister lists bookable services for the public page.
type ServiceLister interface {
	ServiceSource
	List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]models.Service, error)
}

// StaffLister lists bookable staff for the public page.
type StaffLister interface {
	StaffSource
	List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]models.StaffMember, error)
}

// PublicHandler serves the unauthenticated booking page endpoints. Everything
// is keyed by organization slug; no JWT is involved.
type PublicHandler struct {
	repo      *Repository
	orgs      OrganizationSource
	customers CustomerStore
	services  ServiceLister
	staff     StaffLister
	hub       Broadcaster
	queue     MessageEnqueuer
	logger    *zap.Logger
}

// NewPublicHandler creates the public booking handler.
func NewPublicHandler(repo *Repository, orgs OrganizationSource, customers CustomerStore,
	services ServiceLister, staff StaffLister, hub Broadcaster, q MessageEnqueuer, logger *zap.Logger) *PublicHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{repo: repo, orgs: orgs, customers: customers, services: services,
		staff: staff, hub: hub, queue: q, logger: logger}
}

// GetPage handles GET /book/:slug. Returns the organization profile with its
// active services and staff, everything the booking page needs in one call.
func (h *PublicHandler) GetPage(c *gin.Context) {
	org, err := h.orgs.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.NotFound(c, "booking page not found")
		return
	}
	services, err := h.services.List(c.Request.Context(), org.ID, true)
	if err != nil {
		response.Internal(c, "failed to load services")
		return
	}
	staff, err := h.staff.List(c.Request.Context(), org.ID, true)
	if err != nil {
		response.Internal(c, "failed to load staff")
		return
	}
	response.OK(c, gin.H{
		"organization": gin.H{
			"name":     org.Name,
			"slug":     org.Slug,
			"logo_url": org.LogoURL,
			"timezone": org.Timezone,
		},
		"services": services,
		"staff":    staff,
	})
}

// BookRequest is the body for POST /book/:slug.
type BookRequest struct {
	CustomerName string    `json:"customer_name" binding:"required,max=255"`
	Phone        string    `json:"phone" binding:"required"`
	Email        string    `json:"email" binding:"omitempty,email"`
	ServiceID    uuid.UUID `json:"service_id" binding:"required"`
	StaffID      uuid.UUID `json:"staff_id" binding:"required"`
	StartsAt     time.Time `json:"starts_at" binding:"required"`
}

// Book handles POST /book/:slug. Finds or creates the customer by phone, then
// books the slot. Conflicts return 409 so the page can offer another time.
func (h *PublicHandler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.StartsAt.After(time.Now()) {
		response.BadRequest(c, "starts_at must be in the future")
		return
	}
	ctx := c.Request.Context()
	org, err := h.orgs.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.NotFound(c, "booking page not found")
		return
	}

	svc, err := h.services.GetByID(ctx, org.ID, req.ServiceID)
	if err != nil || !svc.Active {
		response.BadRequest(c, "unknown service")
		return
	}
	member, err := h.staff.GetByID(ctx, org.ID, req.StaffID)
	if err != nil || !member.Active {
		response.BadRequest(c, "unknown staff member")
		return
	}

	phone := messaging.NormalizePhone(req.Phone)
	if phone == "" {
		response.BadRequest(c, "invalid phone number")
		return
	}
	customer, err := h.customers.GetByPhone(ctx, org.ID, phone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		response.Internal(c, "failed to look up customer")
		return
	}
	if customer == nil {
		customer = &models.Customer{
			OrganizationID:   org.ID,
			FullName:         req.CustomerName,
			Email:            req.Email,
			Phone:            phone,
			PreferredChannel: models.ChannelWhatsApp,
		}
		if err := h.customers.Create(ctx, customer); err != nil {
			response.Internal(c, "failed to create customer")
			return
		}
	}

	a := &models.Appointment{
		OrganizationID: org.ID,
		CustomerID:     customer.ID,
		ServiceID:      svc.ID,
		StaffID:        member.ID,
		StartsAt:       req.StartsAt.UTC(),
		EndsAt:         req.StartsAt.UTC().Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:         models.AppointmentStatusScheduled,
	}
	if err := h.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			response.Conflict(c, "that slot was just taken, please pick another time")
			return
		}
		response.Internal(c, "failed to book appointment")
		return
	}

	if h.hub != nil {
		h.hub.BroadcastAndPublish(org.ID, realtime.EventAppointmentCreated, a)
	}
	if h.queue != nil {
		err := h.queue.EnqueueMessage(ctx, queue.MessagePayload{
			OrganizationID: a.OrganizationID,
			AppointmentID:  a.ID,
			MessageType:    models.MessageTypeConfirmation,
		})
		if err != nil {
			h.logger.Error("failed to enqueue confirmation",
				zap.String("appointment_id", a.ID.String()), zap.Error(err))
		}
	}
	response.Created(c, gin.H{
		"appointment_id": a.ID,
		"starts_at":      a.StartsAt,
		"ends_at":        a.EndsAt,
		"service":        svc.Name,
		"staff":          member.DisplayName,
	})
}
