package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// Repository handles subscription and payment log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a billing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const subColumns = `id, organization_id, plan, status, COALESCE(stripe_customer_id,''),
	COALESCE(stripe_subscription_id,''), current_period_end, created_at, updated_at`

func scanSub(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Plan, &s.Status, &s.StripeCustomerID,
		&s.StripeSubscriptionID, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByOrg returns the organization's subscription. Organizations that never
// touched billing get an implicit starter trial.
func (r *Repository) GetByOrg(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	s, err := scanSub(r.pool.QueryRow(ctx,
		`SELECT `+subColumns+` FROM subscriptions WHERE organization_id = $1`, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.Subscription{
				OrganizationID: orgID,
				Plan:           models.PlanStarter,
				Status:         models.SubscriptionStatusTrialing,
			}, nil
		}
		return nil, err
	}
	return s, nil
}

// Activate upserts the subscription after a completed checkout.
func (r *Repository) Activate(ctx context.Context, orgID uuid.UUID, plan, stripeCustomerID, stripeSubscriptionID string) error {
	const q = `INSERT INTO subscriptions (id, organization_id, plan, status, stripe_customer_id, stripe_subscription_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		ON CONFLICT (organization_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, orgID, plan, models.SubscriptionStatusActive, stripeCustomerID, stripeSubscriptionID)
	return err
}

// UpdateStatusByStripeCustomer transitions the subscription identified by its
// Stripe customer id. Returns the organization id for payment logging.
func (r *Repository) UpdateStatusByStripeCustomer(ctx context.Context, stripeCustomerID, status string, periodEnd *time.Time) (uuid.UUID, error) {
	var orgID uuid.UUID
	const q = `UPDATE subscriptions SET status = $1,
		current_period_end = COALESCE($2, current_period_end), updated_at = NOW()
		WHERE stripe_customer_id = $3
		RETURNING organization_id`
	err := r.pool.QueryRow(ctx, q, status, periodEnd, stripeCustomerID).Scan(&orgID)
	return orgID, err
}

// CreatePaymentLog records one provider event.
func (r *Repository) CreatePaymentLog(ctx context.Context, log *models.PaymentLog) error {
	const q = `INSERT INTO payment_logs (id, organization_id, event_type, amount_cents, currency, status, provider_ref)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NULLIF($6,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, log.OrganizationID, log.EventType, log.AmountCents,
		log.Currency, log.Status, log.ProviderRef).
		Scan(&log.ID, &log.CreatedAt)
}

// ListPayments returns recent payment logs for the organization.
func (r *Repository) ListPayments(ctx context.Context, orgID uuid.UUID, limit int) ([]models.PaymentLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, organization_id, event_type, amount_cents, currency, status, COALESCE(provider_ref,''), created_at
		FROM payment_logs WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.PaymentLog
	for rows.Next() {
		var l models.PaymentLog
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.EventType, &l.AmountCents,
			&l.Currency, &l.Status, &l.ProviderRef, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
