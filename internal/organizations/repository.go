package organizations

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/internal/models"
)

const (
	settingsCachePrefix = "org:settings:"
	settingsCacheTTL    = 5 * time.Minute
)

// Repository handles organization and notification settings persistence.
// Settings reads go through a Redis cache: the worker resolves them on every
// outbound message, and they change rarely.
type Repository struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	logger *zap.Logger
}

// NewRepository creates an organizations repository. cache may be nil.
func NewRepository(pool *pgxpool.Pool, cache *redis.Client, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, cache: cache, logger: logger}
}

const orgColumns = `id, name, slug, COALESCE(logo_url,''), timezone, created_at, updated_at`

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.LogoURL, &o.Timezone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// GetBySlug returns an organization by its public booking slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
}

// Update updates name, timezone and logo URL.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, timezone string, logoURL *string) error {
	const q = `UPDATE organizations SET name = $1, timezone = $2,
		logo_url = COALESCE($3, logo_url), updated_at = NOW() WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, name, timezone, logoURL, id)
	return err
}

// UpdateLogoURL stores the logo object URL.
func (r *Repository) UpdateLogoURL(ctx context.Context, id uuid.UUID, logoURL string) error {
	_, err := r.pool.Exec(ctx, `UPDATE organizations SET logo_url = $1, updated_at = NOW() WHERE id = $2`, logoURL, id)
	return err
}

// GetSettings returns notification settings, preferring the cache. Missing
// rows fall back to defaults so new tenants behave sanely.
func (r *Repository) GetSettings(ctx context.Context, orgID uuid.UUID) (*models.NotificationSettings, error) {
	if r.cache != nil {
		raw, err := r.cache.Get(ctx, settingsCachePrefix+orgID.String()).Result()
		if err == nil {
			var s models.NotificationSettings
			if json.Unmarshal([]byte(raw), &s) == nil {
				return &s, nil
			}
		}
	}

	var s models.NotificationSettings
	err := r.pool.QueryRow(ctx, `SELECT organization_id, whatsapp_enabled, sms_enabled, email_enabled, reminder_lead_hours, updated_at
		FROM notification_settings WHERE organization_id = $1`, orgID).
		Scan(&s.OrganizationID, &s.WhatsAppEnabled, &s.SMSEnabled, &s.EmailEnabled, &s.ReminderLeadHours, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults := models.DefaultNotificationSettings(orgID)
			return &defaults, nil
		}
		return nil, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(s); err == nil {
			if err := r.cache.Set(ctx, settingsCachePrefix+orgID.String(), raw, settingsCacheTTL).Err(); err != nil {
				r.logger.Warn("settings cache set failed", zap.Error(err))
			}
		}
	}
	return &s, nil
}

// UpdateSettings upserts notification settings and invalidates the cache entry.
func (r *Repository) UpdateSettings(ctx context.Context, s *models.NotificationSettings) error {
	const q = `INSERT INTO notification_settings (organization_id, whatsapp_enabled, sms_enabled, email_enabled, reminder_lead_hours, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			whatsapp_enabled = EXCLUDED.whatsapp_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			email_enabled = EXCLUDED.email_enabled,
			reminder_lead_hours = EXCLUDED.reminder_lead_hours,
			updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, s.OrganizationID, s.WhatsAppEnabled, s.SMSEnabled, s.EmailEnabled, s.ReminderLeadHours)
	if err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Del(ctx, settingsCachePrefix+s.OrganizationID.String()).Err(); err != nil {
			r.logger.Warn("settings cache invalidate failed", zap.Error(err))
		}
	}
	return nil
}
