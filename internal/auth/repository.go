package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-booking/backend/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, organization_id, email, password_hash, full_name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user in an existing organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, email, passwordHash, fullName string, role models.Role) (*models.User, error) {
	const q = `INSERT INTO users (id, organization_id, email, password_hash, full_name, role)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, orgID, email, passwordHash, fullName, string(role)))
}

// CreateWithOrganization creates an organization and its first admin user in
// one transaction, plus default notification settings for the new tenant.
func (r *Repository) CreateWithOrganization(ctx context.Context, orgName, orgSlug, email, passwordHash, fullName string) (*models.User, *models.Organization, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var org models.Organization
	err = tx.QueryRow(ctx, `INSERT INTO organizations (id, name, slug, timezone)
		VALUES (gen_random_uuid(), $1, $2, 'UTC')
		RETURNING id, name, slug, COALESCE(logo_url,''), timezone, created_at, updated_at`,
		orgName, orgSlug).
		Scan(&org.ID, &org.Name, &org.Slug, &org.LogoURL, &org.Timezone, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}

	defaults := models.DefaultNotificationSettings(org.ID)
	_, err = tx.Exec(ctx, `INSERT INTO notification_settings (organization_id, whatsapp_enabled, sms_enabled, email_enabled, reminder_lead_hours)
		VALUES ($1, $2, $3, $4, $5)`,
		org.ID, defaults.WhatsAppEnabled, defaults.SMSEnabled, defaults.EmailEnabled, defaults.ReminderLeadHours)
	if err != nil {
		return nil, nil, err
	}

	user, err := scanUser(tx.QueryRow(ctx, `INSERT INTO users (id, organization_id, email, password_hash, full_name, role)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		org.ID, email, passwordHash, fullName, string(models.RoleAdmin)))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return user, &org, nil
}

// List returns all users of one organization.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, organization_id, email, full_name, role, created_at
		FROM users WHERE organization_id = $1 ORDER BY full_name, email`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.FullName, &role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		list = append(list, u)
	}
	return list, rows.Err()
}
