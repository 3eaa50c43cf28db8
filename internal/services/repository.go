package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// Repository handles service persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a services repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const serviceColumns = `id, organization_id, name, COALESCE(description,''), duration_minutes, price_cents, currency, COALESCE(image_url,''), active, created_at, updated_at`

func scanService(row pgx.Row) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &s.DurationMinutes,
		&s.PriceCents, &s.Currency, &s.ImageURL, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new service.
func (r *Repository) Create(ctx context.Context, s *models.Service) error {
	const q = `INSERT INTO services (id, organization_id, name, description, duration_minutes, price_cents, currency, active)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.OrganizationID, s.Name, s.Description, s.DurationMinutes, s.PriceCents, s.Currency, s.Active).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a service by ID within the organization.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Service, error) {
	return scanService(r.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1 AND organization_id = $2`, id, orgID))
}

// List returns services of the organization. activeOnly filters out disabled
// services, which is what the public booking page wants.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]models.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services WHERE organization_id = $1`
	if activeOnly {
		q += ` AND active`
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Update updates service fields.
func (r *Repository) Update(ctx context.Context, s *models.Service) error {
	const q = `UPDATE services SET name = $1, description = NULLIF($2,''), duration_minutes = $3,
		price_cents = $4, currency = $5, active = $6, updated_at = NOW()
		WHERE id = $7 AND organization_id = $8`
	_, err := r.pool.Exec(ctx, q, s.Name, s.Description, s.DurationMinutes, s.PriceCents, s.Currency, s.Active, s.ID, s.OrganizationID)
	return err
}

// UpdateImageURL stores the service image object URL.
func (r *Repository) UpdateImageURL(ctx context.Context, orgID, id uuid.UUID, imageURL string) error {
	_, err := r.pool.Exec(ctx, `UPDATE services SET image_url = $1, updated_at = NOW()
		WHERE id = $2 AND organization_id = $3`, imageURL, id, orgID)
	return err
}

// Delete removes a service. Fails if appointments still reference it.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1 AND organization_id = $2`, id, orgID)
	return err
}
