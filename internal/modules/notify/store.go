// README: User notification endpoints backed by PostgreSQL.
package notify

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"haulmatch/internal/types"
)

type SQLEndpointStore struct {
	db *pgxpool.Pool
}

func NewSQLEndpointStore(db *pgxpool.Pool) *SQLEndpointStore {
	return &SQLEndpointStore{db: db}
}

// Endpoints returns the user's registered device token and email address.
// An unknown user resolves to empty endpoints, not an error: notification
// delivery is best-effort end to end.
func (s *SQLEndpointStore) Endpoints(ctx context.Context, userID types.ID) (string, string, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(device_token, ''), COALESCE(email, '')
		FROM users
		WHERE id = $1`, string(userID),
	)
	var token, email string
	err := row.Scan(&token, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return token, email, nil
}
