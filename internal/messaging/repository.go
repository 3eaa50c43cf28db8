package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// Repository handles message log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a messaging repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePending inserts a new log row in pending state and fills in its id.
func (r *Repository) CreatePending(ctx context.Context, log *models.MessageLog) error {
	log.Status = models.MessageLogStatusPending
	const q = `INSERT INTO message_logs (id, organization_id, appointment_id, message_type, channel, recipient, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, log.OrganizationID, log.AppointmentID, log.MessageType,
		string(log.Channel), log.Recipient, log.Status).
		Scan(&log.ID, &log.CreatedAt)
}

// MarkSent records a successful delivery attempt.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE message_logs SET status = $1, provider_message_id = NULLIF($2,''), sent_at = NOW()
		WHERE id = $3`, models.MessageLogStatusSent, providerMessageID, id)
	return err
}

// MarkFailed records a failed delivery attempt.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx, `UPDATE message_logs SET status = $1, error_message = $2
		WHERE id = $3`, models.MessageLogStatusFailed, errMsg, id)
	return err
}

// List returns the most recent message logs for the organization.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, limit int) ([]models.MessageLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, organization_id, appointment_id, message_type, channel, recipient, status,
		COALESCE(provider_message_id,''), COALESCE(error_message,''), sent_at, created_at
		FROM message_logs WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.MessageLog
	for rows.Next() {
		var l models.MessageLog
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.AppointmentID, &l.MessageType, &l.Channel,
			&l.Recipient, &l.Status, &l.ProviderMessageID, &l.ErrorMessage, &l.SentAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// ReminderAlreadySent reports whether a reminder log exists for the
// appointment. Guards against double-sends when a scan races an enqueue.
func (r *Repository) ReminderAlreadySent(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM message_logs WHERE appointment_id = $1 AND message_type = $2 AND status = $3
	)`, appointmentID, models.MessageTypeReminder, models.MessageLogStatusSent).Scan(&exists)
	return exists, err
}
