// README: Last-known transporter positions backed by Redis GEO.
package transporter

import (
	"context"

	"github.com/redis/go-redis/v9"

	"haulmatch/internal/types"
)

const positionGeoKey = "transporters:positions"

// PositionStore keeps the last reported position of each transporter in a
// Redis GEO set, written by the tracking ingest and read during matching.
type PositionStore struct {
	redis *redis.Client
}

func NewPositionStore(redis *redis.Client) *PositionStore {
	return &PositionStore{redis: redis}
}

func (s *PositionStore) SetPosition(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, positionGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *PositionStore) RemovePosition(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, positionGeoKey, string(id)).Err()
}

// Positions resolves positions for the given ids in one round trip.
// Transporters with no recorded position are absent from the result.
func (s *PositionStore) Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	positions, err := s.redis.GeoPos(ctx, positionGeoKey, members...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[types.ID]types.Point, len(ids))
	for i, pos := range positions {
		if pos == nil {
			continue
		}
		out[ids[i]] = types.Point{Lat: pos.Latitude, Lng: pos.Longitude}
	}
	return out, nil
}
