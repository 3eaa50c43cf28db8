package appointments

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// ErrConflict is returned when a slot overlaps an existing appointment for the
// same staff member.
var ErrConflict = errors.New("appointments: slot conflicts with an existing appointment")

// Repository handles appointment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an appointments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const apptColumns = `id, organization_id, customer_id, service_id, staff_id, starts_at, ends_at,
	status, COALESCE(notes,''), reminder_sent_at, cancelled_at, COALESCE(cancel_reason,''), created_at, updated_at`

func scanAppt(row pgx.Row) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(&a.ID, &a.OrganizationID, &a.CustomerID, &a.ServiceID, &a.StaffID, &a.StartsAt, &a.EndsAt,
		&a.Status, &a.Notes, &a.ReminderSentAt, &a.CancelledAt, &a.CancelReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// overlaps reports whether two half-open intervals intersect. Mirrors the
// overlapQuery predicate and the appointments_staff_no_overlap constraint.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// exclusionViolation is the Postgres error code raised when an insert or
// update collides with an EXCLUDE constraint.
const exclusionViolation = "23P01"

// asConflict maps a violation of the staff no-overlap constraint to
// ErrConflict; other errors pass through.
func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return ErrConflict
	}
	return err
}

// overlapQuery finds a live appointment for the staff member that intersects
// [startsAt, endsAt). Cancelled and no-show slots do not block.
const overlapQuery = `SELECT EXISTS (
	SELECT 1 FROM appointments
	WHERE staff_id = $1 AND id <> $2
	AND status NOT IN ('cancelled', 'no_show')
	AND starts_at < $4 AND $3 < ends_at
)`

// Create inserts a new appointment after checking for staff conflicts. The
// read check catches most conflicts up front; under concurrent writers the
// appointments_staff_no_overlap exclusion constraint is the authority, and its
// violation also surfaces as ErrConflict.
func (r *Repository) Create(ctx context.Context, a *models.Appointment) error {
	var conflict bool
	if err := r.pool.QueryRow(ctx, overlapQuery, a.StaffID, uuid.Nil, a.StartsAt, a.EndsAt).Scan(&conflict); err != nil {
		return err
	}
	if conflict {
		return ErrConflict
	}

	const q = `INSERT INTO appointments (id, organization_id, customer_id, service_id, staff_id, starts_at, ends_at, status, notes)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, NULLIF($8,''))
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, a.OrganizationID, a.CustomerID, a.ServiceID, a.StaffID,
		a.StartsAt, a.EndsAt, a.Status, a.Notes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return asConflict(err)
}

// GetByID returns an appointment by ID within the organization.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Appointment, error) {
	return scanAppt(r.pool.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE id = $1 AND organization_id = $2`, id, orgID))
}

// ListFilter narrows List results. Zero values mean no filter.
type ListFilter struct {
	From    time.Time
	To      time.Time
	StaffID uuid.UUID
	Status  string
}

// List returns appointments of the organization matching the filter, ordered
// by start time.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f ListFilter) ([]models.Appointment, error) {
	q := `SELECT ` + apptColumns + ` FROM appointments WHERE organization_id = $1`
	args := []interface{}{orgID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += ` AND starts_at >= $` + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += ` AND starts_at < $` + strconv.Itoa(len(args))
	}
	if f.StaffID != uuid.Nil {
		args = append(args, f.StaffID)
		q += ` AND staff_id = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` AND status = $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY starts_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Update rewrites mutable appointment fields. Rescheduling re-runs the staff
// conflict check, excluding the appointment itself; the exclusion constraint
// backstops concurrent reschedules the same way it backstops creates.
func (r *Repository) Update(ctx context.Context, a *models.Appointment) error {
	if a.Status != models.AppointmentStatusCancelled && a.Status != models.AppointmentStatusNoShow {
		var conflict bool
		if err := r.pool.QueryRow(ctx, overlapQuery, a.StaffID, a.ID, a.StartsAt, a.EndsAt).Scan(&conflict); err != nil {
			return err
		}
		if conflict {
			return ErrConflict
		}
	}

	const q = `UPDATE appointments SET staff_id = $1, starts_at = $2, ends_at = $3, status = $4,
		notes = NULLIF($5,''), cancelled_at = $6, cancel_reason = NULLIF($7,''), updated_at = NOW()
		WHERE id = $8 AND organization_id = $9`
	_, err := r.pool.Exec(ctx, q, a.StaffID, a.StartsAt, a.EndsAt, a.Status, a.Notes,
		a.CancelledAt, a.CancelReason, a.ID, a.OrganizationID)
	return asConflict(err)
}

// Delete removes an appointment.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND organization_id = $2`, id, orgID)
	return err
}

// MarkReminderSent stamps the appointment so the scanner skips it next pass.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE appointments SET reminder_sent_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// DueForReminder returns live appointments starting within the lead window
// that have not been reminded yet. The lead window is per organization, so the
// join resolves each tenant's configured hours with the default as fallback.
func (r *Repository) DueForReminder(ctx context.Context, defaultLeadHours int, limit int) ([]models.Appointment, error) {
	const q = `SELECT ` + apptColumns + ` FROM appointments a
		WHERE a.status IN ('scheduled', 'confirmed')
		AND a.reminder_sent_at IS NULL
		AND a.starts_at > NOW()
		AND a.starts_at <= NOW() + make_interval(hours => COALESCE(
			(SELECT ns.reminder_lead_hours FROM notification_settings ns WHERE ns.organization_id = a.organization_id), $1))
		ORDER BY a.starts_at
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, defaultLeadHours, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Detail is an appointment joined with the names the notification templates
// and dashboard need.
type Detail struct {
	models.Appointment
	CustomerName     string         `json:"customer_name"`
	CustomerPhone    string         `json:"customer_phone,omitempty"`
	CustomerEmail    string         `json:"customer_email,omitempty"`
	CustomerChannel  models.Channel `json:"customer_channel"`
	ServiceName      string         `json:"service_name"`
	StaffName        string         `json:"staff_name"`
	OrganizationName string         `json:"organization_name"`
	Timezone         string         `json:"timezone"`
}

// GetDetail returns the joined view for one appointment.
func (r *Repository) GetDetail(ctx context.Context, orgID, id uuid.UUID) (*Detail, error) {
	const q = `SELECT a.id, a.organization_id, a.customer_id, a.service_id, a.staff_id, a.starts_at, a.ends_at,
		a.status, COALESCE(a.notes,''), a.reminder_sent_at, a.cancelled_at, COALESCE(a.cancel_reason,''), a.created_at, a.updated_at,
		c.full_name, COALESCE(c.phone,''), COALESCE(c.email,''), c.preferred_channel,
		s.name, st.display_name, o.name, o.timezone
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN services s ON s.id = a.service_id
		JOIN staff_members st ON st.id = a.staff_id
		JOIN organizations o ON o.id = a.organization_id
		WHERE a.id = $1 AND a.organization_id = $2`
	var d Detail
	err := r.pool.QueryRow(ctx, q, id, orgID).Scan(
		&d.ID, &d.OrganizationID, &d.CustomerID, &d.ServiceID, &d.StaffID, &d.StartsAt, &d.EndsAt,
		&d.Status, &d.Notes, &d.ReminderSentAt, &d.CancelledAt, &d.CancelReason, &d.CreatedAt, &d.UpdatedAt,
		&d.CustomerName, &d.CustomerPhone, &d.CustomerEmail, &d.CustomerChannel,
		&d.ServiceName, &d.StaffName, &d.OrganizationName, &d.Timezone)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
