package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/internal/realtime"
	"github.com/aura-booking/backend/pkg/queue"
	"github.com/aura-booking/backend/pkg/response"
)

// Broadcaster pushes an event to an organization's room, local and cross-instance.
type Broadcaster interface {
	BroadcastAndPublish(orgID uuid.UUID, event string, payload interface{})
}

// MessageEnqueuer hands a notification job to the worker queue.
type MessageEnqueuer interface {
	EnqueueMessage(ctx context.Context, payload queue.MessagePayload) error
}

// ServiceSource resolves a service for duration and existence checks.
type ServiceSource interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Service, error)
}

// StaffSource resolves a staff member for existence checks.
type StaffSource interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.StaffMember, error)
}

// CustomerSource resolves a customer for org-membership checks.
type CustomerSource interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error)
}

// Handler handles appointment HTTP endpoints.
type Handler struct {
	repo      *Repository
	services  ServiceSource
	staff     StaffSource
	customers CustomerSource
	hub       Broadcaster
	queue     MessageEnqueuer
	logger    *zap.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(repo *Repository, services ServiceSource, staff StaffSource, customers CustomerSource,
	hub Broadcaster, q MessageEnqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, services: services, staff: staff, customers: customers,
		hub: hub, queue: q, logger: logger}
}

// notify broadcasts the room event and queues the customer notification.
// Both happen after the database commit; failures are logged, never retried
// here, and never fail the request.
func (h *Handler) notify(ctx context.Context, event string, a *models.Appointment, messageType string) {
	if h.hub != nil {
		h.hub.BroadcastAndPublish(a.OrganizationID, event, a)
	}
	if h.queue != nil && messageType != "" {
		err := h.queue.EnqueueMessage(ctx, queue.MessagePayload{
			OrganizationID: a.OrganizationID,
			AppointmentID:  a.ID,
			MessageType:    messageType,
		})
		if err != nil {
			h.logger.Error("failed to enqueue notification",
				zap.String("appointment_id", a.ID.String()),
				zap.String("message_type", messageType),
				zap.Error(err))
		}
	}
}

// broadcastDeleted emits appointment_deleted with the appointment_id the
// dashboard listens for.
func (h *Handler) broadcastDeleted(a *models.Appointment) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastAndPublish(a.OrganizationID, realtime.EventAppointmentDeleted, gin.H{"appointment_id": a.ID})
}

// CreateRequest is the body for POST /appointments.
type CreateRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	StaffID    uuid.UUID `json:"staff_id" binding:"required"`
	StartsAt   time.Time `json:"starts_at" binding:"required"`
	Notes      string    `json:"notes"`
}

// Create handles POST /appointments. The end time comes from the service
// duration; conflicting slots for the same staff member return 409.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.StartsAt.After(time.Now()) {
		response.BadRequest(c, "starts_at must be in the future")
		return
	}
	claims := auth.MustClaims(c)
	ctx := c.Request.Context()

	svc, err := h.services.GetByID(ctx, claims.OrganizationID, req.ServiceID)
	if err != nil {
		response.BadRequest(c, "unknown service")
		return
	}
	if !svc.Active {
		response.BadRequest(c, "service is not active")
		return
	}
	if _, err := h.staff.GetByID(ctx, claims.OrganizationID, req.StaffID); err != nil {
		response.BadRequest(c, "unknown staff member")
		return
	}
	if _, err := h.customers.GetByID(ctx, claims.OrganizationID, req.CustomerID); err != nil {
		response.BadRequest(c, "unknown customer")
		return
	}

	a := &models.Appointment{
		OrganizationID: claims.OrganizationID,
		CustomerID:     req.CustomerID,
		ServiceID:      req.ServiceID,
		StaffID:        req.StaffID,
		StartsAt:       req.StartsAt.UTC(),
		EndsAt:         req.StartsAt.UTC().Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:         models.AppointmentStatusScheduled,
		Notes:          req.Notes,
	}
	if err := h.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			response.Conflict(c, "slot conflicts with an existing appointment")
			return
		}
		response.Internal(c, "failed to create appointment")
		return
	}

	h.notify(ctx, realtime.EventAppointmentCreated, a, models.MessageTypeConfirmation)
	response.Created(c, a)
}

// List handles GET /appointments?from=&to=&staff_id=&status=.
// from/to are RFC 3339 timestamps.
func (h *Handler) List(c *gin.Context) {
	claims := auth.MustClaims(c)
	var f ListFilter
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid from timestamp")
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid to timestamp")
			return
		}
		f.To = t
	}
	if v := c.Query("staff_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid staff_id")
			return
		}
		f.StaffID = id
	}
	if v := c.Query("status"); v != "" {
		if !models.ValidAppointmentStatus(v) {
			response.BadRequest(c, "invalid status")
			return
		}
		f.Status = v
	}
	list, err := h.repo.List(c.Request.Context(), claims.OrganizationID, f)
	if err != nil {
		response.Internal(c, "failed to list appointments")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /appointments/:id. Returns the joined detail view.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid appointment id")
		return
	}
	claims := auth.MustClaims(c)
	d, err := h.repo.GetDetail(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "appointment not found")
		return
	}
	response.OK(c, d)
}

// UpdateRequest is the body for PATCH /appointments/:id.
type UpdateRequest struct {
	StaffID  *uuid.UUID `json:"staff_id"`
	StartsAt *time.Time `json:"starts_at"`
	Status   *string    `json:"status"`
	Notes    *string    `json:"notes"`
}

// Update handles PATCH /appointments/:id. Rescheduling recomputes the end
// time from the service duration and re-checks staff conflicts.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid appointment id")
		return
	}
	claims := auth.MustClaims(c)
	ctx := c.Request.Context()
	a, err := h.repo.GetByID(ctx, claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "appointment not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if req.StaffID != nil {
		if _, err := h.staff.GetByID(ctx, claims.OrganizationID, *req.StaffID); err != nil {
			response.BadRequest(c, "unknown staff member")
			return
		}
		a.StaffID = *req.StaffID
	}
	if req.StartsAt != nil {
		svc, err := h.services.GetByID(ctx, claims.OrganizationID, a.ServiceID)
		if err != nil {
			response.Internal(c, "failed to resolve service")
			return
		}
		a.StartsAt = req.StartsAt.UTC()
		a.EndsAt = a.StartsAt.Add(time.Duration(svc.DurationMinutes) * time.Minute)
	}
	if req.Status != nil {
		if !models.ValidAppointmentStatus(*req.Status) {
			response.BadRequest(c, "invalid status")
			return
		}
		a.Status = *req.Status
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if err := h.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			response.Conflict(c, "slot conflicts with an existing appointment")
			return
		}
		response.Internal(c, "failed to update appointment")
		return
	}

	h.notify(ctx, realtime.EventAppointmentUpdated, a, "")
	response.OK(c, a)
}

// CancelRequest is the body for POST /appointments/:id/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /appointments/:id/cancel. Marks the appointment
// cancelled and queues a cancellation notice to the customer.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid appointment id")
		return
	}
	claims := auth.MustClaims(c)
	ctx := c.Request.Context()
	a, err := h.repo.GetByID(ctx, claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "appointment not found")
		return
	}
	if a.Status == models.AppointmentStatusCancelled {
		response.OK(c, a)
		return
	}
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	now := time.Now().UTC()
	a.Status = models.AppointmentStatusCancelled
	a.CancelledAt = &now
	a.CancelReason = req.Reason
	if err := h.repo.Update(ctx, a); err != nil {
		response.Internal(c, "failed to cancel appointment")
		return
	}

	h.notify(ctx, realtime.EventAppointmentUpdated, a, models.MessageTypeCancellation)
	response.OK(c, a)
}

// Delete handles DELETE /appointments/:id (admin or manager).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid appointment id")
		return
	}
	claims := auth.MustClaims(c)
	a, err := h.repo.GetByID(c.Request.Context(), claims.OrganizationID, id)
	if err != nil {
		response.NotFound(c, "appointment not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), claims.OrganizationID, id); err != nil {
		response.Internal(c, "failed to delete appointment")
		return
	}
	h.broadcastDeleted(a)
	response.NoContent(c)
}
