package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// Repository handles staff member persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a staff repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const staffColumns = `id, organization_id, user_id, display_name, working_hours, active, created_at, updated_at`

func scanStaff(row pgx.Row) (*models.StaffMember, error) {
	var m models.StaffMember
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.DisplayName, &m.WorkingHours, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new staff member.
func (r *Repository) Create(ctx context.Context, m *models.StaffMember) error {
	const q = `INSERT INTO staff_members (id, organization_id, user_id, display_name, working_hours, active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, m.OrganizationID, m.UserID, m.DisplayName, m.WorkingHours, m.Active).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// GetByID returns a staff member by ID within the organization.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.StaffMember, error) {
	return scanStaff(r.pool.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE id = $1 AND organization_id = $2`, id, orgID))
}

// List returns staff members of the organization.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]models.StaffMember, error) {
	q := `SELECT ` + staffColumns + ` FROM staff_members WHERE organization_id = $1`
	if activeOnly {
		q += ` AND active`
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY display_name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.StaffMember
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// Update updates staff member fields.
func (r *Repository) Update(ctx context.Context, m *models.StaffMember) error {
	const q = `UPDATE staff_members SET user_id = $1, display_name = $2, working_hours = $3,
		active = $4, updated_at = NOW() WHERE id = $5 AND organization_id = $6`
	_, err := r.pool.Exec(ctx, q, m.UserID, m.DisplayName, m.WorkingHours, m.Active, m.ID, m.OrganizationID)
	return err
}

// Delete removes a staff member. Fails if appointments still reference them.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM staff_members WHERE id = $1 AND organization_id = $2`, id, orgID)
	return err
}
