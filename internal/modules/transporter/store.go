// README: Transporter directory and subscription stores backed by PostgreSQL.
package transporter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"haulmatch/internal/types"
)

type SQLDirectoryStore struct {
	db *pgxpool.Pool
}

func NewSQLDirectoryStore(db *pgxpool.Pool) *SQLDirectoryStore {
	return &SQLDirectoryStore{db: db}
}

func (s *SQLDirectoryStore) ListAcceptingApproved(ctx context.Context) ([]Candidate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, vehicle_capacity_kg, refrigerated, vehicle_type,
		       rating, accepting_booking, status, email,
		       notification_prefs, device_token
		FROM transporters
		WHERE status = $1 AND accepting_booking`, StatusApproved,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.VehicleCapacityKg, &c.Refrigerated, &c.VehicleType,
			&c.Rating, &c.AcceptingBooking, &c.Status, &c.Email,
			&c.NotificationPrefs, &c.DeviceToken,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// maxSubscriptionBatch mirrors the hosted subscription API's limit on ids
// per lookup. The SQL store enforces it so a missed chunking call site
// fails loudly instead of silently over-fetching.
const maxSubscriptionBatch = 10

type SQLSubscriptionStore struct {
	db *pgxpool.Pool
}

func NewSQLSubscriptionStore(db *pgxpool.Pool) *SQLSubscriptionStore {
	return &SQLSubscriptionStore{db: db}
}

func (s *SQLSubscriptionStore) ActiveUserIDs(ctx context.Context, userIDs []types.ID) ([]types.ID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	if len(userIDs) > maxSubscriptionBatch {
		return nil, fmt.Errorf("subscription lookup accepts at most %d ids, got %d", maxSubscriptionBatch, len(userIDs))
	}
	raw := make([]string, len(userIDs))
	for i, id := range userIDs {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
		SELECT user_id
		FROM subscription_windows
		WHERE user_id = ANY($1)
		  AND status = 'active'
		  AND is_active
		  AND end_date >= NOW()`, raw,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
