package booking

import (
	"context"
	"sync"
	"time"

	"haulmatch/internal/types"
)

// memStore is an in-memory Store with the same conditional-update
// semantics as the SQL implementation.
type memStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	history  map[types.ID][]StatusChange
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[types.ID]*Booking),
		history:  make(map[types.ID][]StatusChange),
	}
}

func (m *memStore) Create(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) GetMany(ctx context.Context, ids []types.ID) ([]*Booking, error) {
	out := make([]*Booking, len(ids))
	for i, id := range ids {
		b, err := m.Get(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (m *memStore) ListPending(ctx context.Context, limit int) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.Status == StatusPending && len(out) < limit {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, patch StatusPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	now := time.Now().UTC()
	if patch.MatchedTransporterID != nil {
		b.MatchedTransporterID = patch.MatchedTransporterID
	}
	if patch.TransporterID != nil {
		b.TransporterID = patch.TransporterID
	}
	if patch.VehicleID != nil {
		b.VehicleID = patch.VehicleID
	}
	if patch.CancellationReason != nil {
		b.CancellationReason = patch.CancellationReason
	}
	switch to {
	case StatusMatched:
		b.MatchedAt = &now
	case StatusAccepted:
		b.AcceptedAt = &now
	case StatusInProgress:
		b.StartedAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	case StatusCancelled:
		b.CancelledAt = &now
	}
	return true, nil
}

func (m *memStore) AppendStatusChange(ctx context.Context, id types.ID, change StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[id] = append(m.history[id], change)
	return nil
}

func (m *memStore) StatusHistory(ctx context.Context, id types.ID) ([]StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusChange(nil), m.history[id]...), nil
}
