// README: Eligibility filter: subscription-gated candidate pool and per-booking checks.
package transporter

import (
	"context"
	"sync"

	"haulmatch/internal/config"
	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/geo"
	"haulmatch/internal/types"
)

// DirectoryStore lists transporter records by approval/acceptance flags.
type DirectoryStore interface {
	ListAcceptingApproved(ctx context.Context) ([]Candidate, error)
}

// SubscriptionSource answers which of the given users hold an active,
// unexpired subscription window. Implementations accept a bounded number
// of ids per call; callers chunk.
type SubscriptionSource interface {
	ActiveUserIDs(ctx context.Context, userIDs []types.ID) ([]types.ID, error)
}

// PositionSource resolves last known positions for a set of transporters.
type PositionSource interface {
	Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error)
}

type Service struct {
	directory DirectoryStore
	subs      SubscriptionSource
	positions PositionSource
	cfg       config.MatchingConfig
}

func NewService(directory DirectoryStore, subs SubscriptionSource, positions PositionSource, cfg config.MatchingConfig) *Service {
	return &Service{directory: directory, subs: subs, positions: positions, cfg: cfg}
}

// ActiveSubscribed returns the candidate pool: transporters that are
// approved, accepting bookings, and whose owning user holds an active
// subscription window. Subscription lookups run in concurrent batches of
// cfg.SubscriptionBatchSize; merge order is irrelevant since the result is
// a set intersection.
func (s *Service) ActiveSubscribed(ctx context.Context) ([]Candidate, error) {
	candidates, err := s.directory.ListAcceptingApproved(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	seen := make(map[types.ID]struct{}, len(candidates))
	owners := make([]types.ID, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		owners = append(owners, c.UserID)
	}

	active, err := s.activeOwners(ctx, owners)
	if err != nil {
		return nil, err
	}

	pool := candidates[:0]
	for _, c := range candidates {
		if _, ok := active[c.UserID]; ok {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}

	s.hydratePositions(ctx, pool)
	return pool, nil
}

func (s *Service) activeOwners(ctx context.Context, owners []types.ID) (map[types.ID]struct{}, error) {
	active := make(map[types.ID]struct{}, len(owners))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, batch := range chunkIDs(owners, s.cfg.SubscriptionBatchSize) {
		wg.Add(1)
		go func(batch []types.ID) {
			defer wg.Done()
			ids, err := s.subs.ActiveUserIDs(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, id := range ids {
				active[id] = struct{}{}
			}
		}(batch)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return active, nil
}

// hydratePositions fills LastKnownLocation from the position index.
// Best-effort: a candidate without a position stays eligible (the radius
// check is open-world).
func (s *Service) hydratePositions(ctx context.Context, pool []Candidate) {
	if s.positions == nil {
		return
	}
	ids := make([]types.ID, len(pool))
	for i, c := range pool {
		ids[i] = c.ID
	}
	points, err := s.positions.Positions(ctx, ids)
	if err != nil {
		return
	}
	for i := range pool {
		if p, ok := points[pool[i].ID]; ok {
			pool[i].LastKnownLocation = types.LocationAt(p.Lat, p.Lng)
		}
	}
}

// IsEligible applies the per-booking constraints: capacity with the safety
// margin, pickup proximity when both positions are known, refrigeration,
// and the urgent capability tag.
func (s *Service) IsEligible(c Candidate, b *booking.Booking) bool {
	if c.VehicleCapacityKg < b.WeightKg*s.cfg.CapacityMargin {
		return false
	}
	if d, err := geo.DistanceBetween(c.LastKnownLocation, b.From); err == nil && d > s.cfg.PickupRadiusKm {
		return false
	}
	if b.NeedsRefrigeration && !c.Refrigerated {
		return false
	}
	if b.UrgentDelivery && !c.UrgentCapable() {
		return false
	}
	return true
}
