// README: Integration tests for the booking API routes and error mapping.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"haulmatch/internal/config"
	api "haulmatch/internal/http"
	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/consolidation"
	"haulmatch/internal/modules/matching"
	"haulmatch/internal/modules/transporter"
	"haulmatch/internal/types"
)

type memStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*booking.Booking
	history  map[types.ID][]booking.StatusChange
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[types.ID]*booking.Booking),
		history:  make(map[types.ID][]booking.StatusChange),
	}
}

func (m *memStore) Create(_ context.Context, b *booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) GetMany(ctx context.Context, ids []types.ID) ([]*booking.Booking, error) {
	out := make([]*booking.Booking, len(ids))
	for i, id := range ids {
		b, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (m *memStore) ListPending(_ context.Context, limit int) ([]*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*booking.Booking
	for _, b := range m.bookings {
		if b.Status == booking.StatusPending && len(out) < limit {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to booking.Status, version int, patch booking.StatusPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
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
	if to == booking.StatusMatched {
		now := time.Now().UTC()
		b.MatchedAt = &now
	}
	return true, nil
}

func (m *memStore) AppendStatusChange(_ context.Context, id types.ID, change booking.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[id] = append(m.history[id], change)
	return nil
}

func (m *memStore) StatusHistory(_ context.Context, id types.ID) ([]booking.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]booking.StatusChange(nil), m.history[id]...), nil
}

type allowAllPool struct {
	candidates []transporter.Candidate
}

func (p *allowAllPool) ActiveSubscribed(_ context.Context) ([]transporter.Candidate, error) {
	return append([]transporter.Candidate(nil), p.candidates...), nil
}

func (p *allowAllPool) IsEligible(transporter.Candidate, *booking.Booking) bool { return true }

// buildTestRouter wires the full service graph over an in-memory store.
func buildTestRouter(candidates ...transporter.Candidate) (*gin.Engine, *booking.Service) {
	gin.SetMode(gin.TestMode)
	bookings := booking.NewService(newMemStore(), nil, nil, config.BookingConfig{EnforceMatchedTransporter: true})
	matcher := matching.NewService(bookings, &allowAllPool{candidates: candidates}, nil, nil, config.MatchingConfig{
		PickupRadiusKm: 50, CapacityMargin: 2.0, SubscriptionBatchSize: 10, SweepIntervalSec: 60,
	})
	consolidator := consolidation.NewService(bookings, matcher, config.ConsolidationConfig{})
	srv := api.NewServer(api.ServerDeps{Booking: bookings, Matching: matcher, Consolidation: consolidator})
	return srv.Routes(), bookings
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	r, _ := buildTestRouter()
	w := doRequest(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCreateBooking(t *testing.T) {
	r, _ := buildTestRouter()
	w := doRequest(r, http.MethodPost, "/api/bookings", map[string]any{
		"user_id":   "shipper-1",
		"weight_kg": 250,
		"from_location": map[string]any{
			"address": "Delhi", "latitude": 28.6139, "longitude": 77.2090,
		},
		"to_location": map[string]any{
			"address": "Jaipur", "latitude": 26.9124, "longitude": 75.7873,
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["booking_id"] == "" {
		t.Error("expected a booking_id in the response")
	}
	if body["status"] != string(booking.StatusPending) {
		t.Errorf("expected pending status, got %v", body["status"])
	}
}

func TestCreateBooking_MissingUserID(t *testing.T) {
	r, _ := buildTestRouter()
	w := doRequest(r, http.MethodPost, "/api/bookings", map[string]any{"weight_kg": 100})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetBooking_NotFound(t *testing.T) {
	r, _ := buildTestRouter()
	w := doRequest(r, http.MethodGet, "/api/bookings/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestMatchBooking_ReportsTransporter(t *testing.T) {
	r, bookings := buildTestRouter(transporter.Candidate{ID: "c1", VehicleCapacityKg: 1000, Rating: 4.5})
	b, err := bookings.Create(context.Background(), booking.CreateCommand{UserID: "shipper-1", WeightKg: 100})
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, http.MethodPost, "/api/bookings/"+string(b.ID)+"/match", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["matched"] != true {
		t.Fatalf("expected matched=true, got %v", body["matched"])
	}
	if body["transporter_id"] != "c1" {
		t.Errorf("expected transporter c1, got %v", body["transporter_id"])
	}
}

func TestAcceptBooking_WrongTransporterConflicts(t *testing.T) {
	r, bookings := buildTestRouter(transporter.Candidate{ID: "c1", VehicleCapacityKg: 1000, Rating: 4.5})
	ctx := context.Background()
	b, err := bookings.Create(ctx, booking.CreateCommand{UserID: "shipper-1", WeightKg: 100})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bookings.Match(ctx, booking.MatchCommand{BookingID: b.ID, TransporterID: "c1"}); err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, http.MethodPost, "/api/bookings/"+string(b.ID)+"/accept", map[string]any{
		"transporter_id": "someone-else",
		"vehicle_id":     "v1",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestStartBooking_InvalidStateConflicts(t *testing.T) {
	r, bookings := buildTestRouter()
	b, err := bookings.Create(context.Background(), booking.CreateCommand{UserID: "shipper-1", WeightKg: 100})
	if err != nil {
		t.Fatal(err)
	}

	// pending bookings cannot start
	w := doRequest(r, http.MethodPost, "/api/bookings/"+string(b.ID)+"/start", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestCancelBooking(t *testing.T) {
	r, bookings := buildTestRouter()
	b, err := bookings.Create(context.Background(), booking.CreateCommand{UserID: "shipper-1", WeightKg: 100})
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, http.MethodPost, "/api/bookings/"+string(b.ID)+"/cancel", map[string]any{"reason": "shipper changed plans"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stored, _ := bookings.Get(context.Background(), b.ID)
	if stored.Status != booking.StatusCancelled {
		t.Errorf("expected cancelled, got %s", stored.Status)
	}
}

func TestConsolidate(t *testing.T) {
	r, bookings := buildTestRouter(transporter.Candidate{ID: "c1", VehicleCapacityKg: 5000, Rating: 4.0})
	ctx := context.Background()
	b1, _ := bookings.Create(ctx, booking.CreateCommand{RequestID: "r1", UserID: "shipper-1", WeightKg: 200})
	b2, _ := bookings.Create(ctx, booking.CreateCommand{RequestID: "r2", UserID: "shipper-1", WeightKg: 300})

	w := doRequest(r, http.MethodPost, "/api/consolidations", map[string]any{
		"booking_ids": []string{string(b1.ID), string(b2.ID)},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["request_id"] != "r1_r2" {
		t.Errorf("expected joined request id, got %v", body["request_id"])
	}
	if body["weight_kg"] != 500.0 {
		t.Errorf("expected merged weight 500, got %v", body["weight_kg"])
	}
	if body["matched"] != true {
		t.Errorf("expected matched=true, got %v", body["matched"])
	}
}

func TestConsolidate_TooFewBookings(t *testing.T) {
	r, bookings := buildTestRouter()
	b, _ := bookings.Create(context.Background(), booking.CreateCommand{UserID: "shipper-1", WeightKg: 100})

	w := doRequest(r, http.MethodPost, "/api/consolidations", map[string]any{
		"booking_ids": []string{string(b.ID)},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
