package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StaffLoad is one staff member's appointment count in the window.
type StaffLoad struct {
	StaffID     uuid.UUID `json:"staff_id"`
	DisplayName string    `json:"display_name"`
	Count       int       `json:"count"`
}

// Summary is the dashboard rollup for one organization.
type Summary struct {
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	TotalsByStatus map[string]int `json:"totals_by_status"`
	UpcomingCount  int            `json:"upcoming_count"`
	RevenueCents   *int           `json:"revenue_cents,omitempty"` // admin only
	BusiestStaff   []StaffLoad    `json:"busiest_staff"`
}

// Repository computes dashboard aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Summary aggregates appointment activity for the window. Revenue counts
// completed appointments at the service price at query time.
func (r *Repository) Summary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (*Summary, error) {
	s := &Summary{From: from, To: to, TotalsByStatus: map[string]int{}}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM appointments
		WHERE organization_id = $1 AND starts_at >= $2 AND starts_at < $3
		GROUP BY status`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		s.TotalsByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments
		WHERE organization_id = $1 AND starts_at > NOW()
		AND status IN ('scheduled', 'confirmed')`, orgID).Scan(&s.UpcomingCount); err != nil {
		return nil, err
	}

	staffRows, err := r.pool.Query(ctx, `SELECT st.id, st.display_name, COUNT(*)
		FROM appointments a JOIN staff_members st ON st.id = a.staff_id
		WHERE a.organization_id = $1 AND a.starts_at >= $2 AND a.starts_at < $3
		AND a.status NOT IN ('cancelled', 'no_show')
		GROUP BY st.id, st.display_name
		ORDER BY COUNT(*) DESC LIMIT 5`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer staffRows.Close()
	for staffRows.Next() {
		var l StaffLoad
		if err := staffRows.Scan(&l.StaffID, &l.DisplayName, &l.Count); err != nil {
			return nil, err
		}
		s.BusiestStaff = append(s.BusiestStaff, l)
	}
	return s, staffRows.Err()
}

// Revenue sums completed appointment value in the window.
func (r *Repository) Revenue(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int, error) {
	var cents int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(s.price_cents), 0)
		FROM appointments a JOIN services s ON s.id = a.service_id
		WHERE a.organization_id = $1 AND a.starts_at >= $2 AND a.starts_at < $3
		AND a.status = 'completed'`, orgID, from, to).Scan(&cents)
	return cents, err
}
