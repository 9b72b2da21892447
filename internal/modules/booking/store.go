// README: Booking store backed by PostgreSQL with conditional status updates.
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"haulmatch/internal/types"
)

// SQLStore is the production Store implementation.
type SQLStore struct {
	db *pgxpool.Pool
}

func NewSQLStore(db *pgxpool.Pool) *SQLStore {
	return &SQLStore{db: db}
}

const bookingColumns = `
	id, request_id, user_id, booking_type, booking_mode,
	status, status_version,
	matched_transporter_id, transporter_id, vehicle_id,
	weight_kg, product_type, dimensions, perishable, needs_refrigeration,
	urgent_delivery, insured_value, special_cargo,
	from_address, from_lat, from_lng, to_address, to_lat, to_lng,
	actual_distance_km, route_polyline, estimated_duration_min,
	cost, cost_breakdown, consolidated, recurrence,
	created_at, matched_at, accepted_at, started_at, completed_at,
	cancelled_at, cancellation_reason`

func (s *SQLStore) Create(ctx context.Context, b *Booking) error {
	breakdown, err := json.Marshal(b.CostBreakdown)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18,
			$19, $20, $21, $22, $23, $24,
			$25, $26, $27,
			$28, $29, $30, $31,
			$32, $33, $34, $35, $36,
			$37, $38
		)`,
		string(b.ID), b.RequestID, string(b.UserID), string(b.Type), string(b.Mode),
		string(b.Status), b.StatusVersion,
		idPtr(b.MatchedTransporterID), idPtr(b.TransporterID), idPtr(b.VehicleID),
		b.WeightKg, b.ProductType, b.Dimensions, b.Perishable, b.NeedsRefrigeration,
		b.UrgentDelivery, b.InsuredValue, b.SpecialCargo,
		b.From.Address, b.From.Lat, b.From.Lng, b.To.Address, b.To.Lat, b.To.Lng,
		b.ActualDistanceKm, b.RoutePolyline, b.EstimatedDurationMin,
		b.Cost, breakdown, b.Consolidated, nullableJSON(b.Recurrence),
		b.CreatedAt, b.MatchedAt, b.AcceptedAt, b.StartedAt, b.CompletedAt,
		b.CancelledAt, b.CancellationReason,
	)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, string(id),
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetMany loads all referenced bookings in the caller-supplied order. Any
// unresolved id surfaces as ErrNotFound.
func (s *SQLStore) GetMany(ctx context.Context, ids []types.ID) ([]*Booking, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = ANY($1)`, raw,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[types.ID]*Booking, len(ids))
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		byID[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*Booking, len(ids))
	for i, id := range ids {
		b, ok := byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		out[i] = b
	}
	return out, nil
}

func (s *SQLStore) ListPending(ctx context.Context, limit int) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus is the compare-and-swap write: the row changes only if its
// status and version still match what the caller read.
func (s *SQLStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, patch StatusPatch) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    matched_transporter_id = COALESCE($2, matched_transporter_id),
		    transporter_id = COALESCE($3, transporter_id),
		    vehicle_id = COALESCE($4, vehicle_id),
		    cancellation_reason = COALESCE($5, cancellation_reason),
		    matched_at = CASE WHEN $1 = 'matched' THEN NOW() ELSE matched_at END,
		    accepted_at = CASE WHEN $1 = 'accepted' THEN NOW() ELSE accepted_at END,
		    started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $6 AND status = $7 AND status_version = $8`,
		string(to),
		idPtr(patch.MatchedTransporterID),
		idPtr(patch.TransporterID),
		idPtr(patch.VehicleID),
		patch.CancellationReason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *SQLStore) AppendStatusChange(ctx context.Context, id types.ID, change StatusChange) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_status_events (booking_id, status, reason, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(id), string(change.Status), change.Reason, change.Timestamp,
	)
	return err
}

func (s *SQLStore) StatusHistory(ctx context.Context, id types.ID) ([]StatusChange, error) {
	rows, err := s.db.Query(ctx, `
		SELECT status, reason, created_at
		FROM booking_status_events
		WHERE booking_id = $1
		ORDER BY created_at, id`, string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.Status, &c.Reason, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var matchedID, transporterID, vehicleID, cancelReason sql.NullString
	var fromLat, fromLng, toLat, toLng sql.NullFloat64
	var breakdown []byte
	var recurrence []byte
	var matchedAt, acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.RequestID, &b.UserID, &b.Type, &b.Mode,
		&b.Status, &b.StatusVersion,
		&matchedID, &transporterID, &vehicleID,
		&b.WeightKg, &b.ProductType, &b.Dimensions, &b.Perishable, &b.NeedsRefrigeration,
		&b.UrgentDelivery, &b.InsuredValue, &b.SpecialCargo,
		&b.From.Address, &fromLat, &fromLng, &b.To.Address, &toLat, &toLng,
		&b.ActualDistanceKm, &b.RoutePolyline, &b.EstimatedDurationMin,
		&b.Cost, &breakdown, &b.Consolidated, &recurrence,
		&b.CreatedAt, &matchedAt, &acceptedAt, &startedAt, &completedAt,
		&cancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	b.MatchedTransporterID = toIDPtr(matchedID)
	b.TransporterID = toIDPtr(transporterID)
	b.VehicleID = toIDPtr(vehicleID)
	b.From.Lat = toFloatPtr(fromLat)
	b.From.Lng = toFloatPtr(fromLng)
	b.To.Lat = toFloatPtr(toLat)
	b.To.Lng = toFloatPtr(toLng)
	b.MatchedAt = toTimePtr(matchedAt)
	b.AcceptedAt = toTimePtr(acceptedAt)
	b.StartedAt = toTimePtr(startedAt)
	b.CompletedAt = toTimePtr(completedAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		b.CancellationReason = &cancelReason.String
	}
	b.CostBreakdown = map[string]int64{}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &b.CostBreakdown); err != nil {
			return nil, err
		}
	}
	if len(recurrence) > 0 {
		b.Recurrence = json.RawMessage(recurrence)
	}
	return &b, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}

func toFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullableJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
