// README: Rate store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRateNotFound = errors.New("no rate configured for booking type")

type SQLStore struct {
	db *pgxpool.Pool
}

func NewSQLStore(db *pgxpool.Pool) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetRate(ctx context.Context, bookingType string) (Rate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT booking_type, base_fare, per_km, currency
		FROM freight_rates
		WHERE booking_type = $1`, bookingType,
	)
	var r Rate
	err := row.Scan(&r.BookingType, &r.BaseFare, &r.PerKm, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrRateNotFound
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}
