package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// Repository handles customer persistence. Every query is scoped by
// organization id so one tenant can never read another's customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a customers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, organization_id, full_name, COALESCE(email,''), COALESCE(phone,''), preferred_channel, COALESCE(notes,''), created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var cu models.Customer
	err := row.Scan(&cu.ID, &cu.OrganizationID, &cu.FullName, &cu.Email, &cu.Phone, &cu.PreferredChannel, &cu.Notes, &cu.CreatedAt, &cu.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cu, nil
}

// Create inserts a new customer.
func (r *Repository) Create(ctx context.Context, cu *models.Customer) error {
	const q = `INSERT INTO customers (id, organization_id, full_name, email, phone, preferred_channel, notes)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), NULLIF($4,''), $5, NULLIF($6,''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, cu.OrganizationID, cu.FullName, cu.Email, cu.Phone, string(cu.PreferredChannel), cu.Notes).
		Scan(&cu.ID, &cu.CreatedAt, &cu.UpdatedAt)
}

// GetByID returns a customer by ID within the organization.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND organization_id = $2`, id, orgID))
}

// GetByPhone returns a customer by normalized phone within the organization.
func (r *Repository) GetByPhone(ctx context.Context, orgID uuid.UUID, phone string) (*models.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE organization_id = $1 AND phone = $2`, orgID, phone))
}

// List returns customers of the organization, optionally filtered by a search
// term against name, email and phone.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, search string) ([]models.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		q += ` AND (full_name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY full_name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Customer
	for rows.Next() {
		cu, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cu)
	}
	return list, rows.Err()
}

// Update updates customer fields.
func (r *Repository) Update(ctx context.Context, cu *models.Customer) error {
	const q = `UPDATE customers SET full_name = $1, email = NULLIF($2,''), phone = NULLIF($3,''),
		preferred_channel = $4, notes = NULLIF($5,''), updated_at = NOW()
		WHERE id = $6 AND organization_id = $7`
	_, err := r.pool.Exec(ctx, q, cu.FullName, cu.Email, cu.Phone, string(cu.PreferredChannel), cu.Notes, cu.ID, cu.OrganizationID)
	return err
}

// Delete removes a customer.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND organization_id = $2`, id, orgID)
	return err
}
