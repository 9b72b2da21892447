// README: Booking service implements lifecycle transitions with compare-and-swap persistence.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"haulmatch/internal/config"
	"haulmatch/internal/modules/geo"
	"haulmatch/internal/types"
)

var (
	ErrNotFound            = errors.New("booking not found")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrConflict            = errors.New("booking state conflict")
	ErrBadRequest          = errors.New("bad request")
	ErrTransporterMismatch = errors.New("accepting transporter differs from matched transporter")
)

// Store is the persistence collaborator for bookings. UpdateStatus must be
// atomic: the new status is written only if the stored status and version
// still match, so two concurrent transitions cannot both succeed.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	GetMany(ctx context.Context, ids []types.ID) ([]*Booking, error)
	ListPending(ctx context.Context, limit int) ([]*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, patch StatusPatch) (bool, error)
	AppendStatusChange(ctx context.Context, id types.ID, change StatusChange) error
	StatusHistory(ctx context.Context, id types.ID) ([]StatusChange, error)
}

// StatusPatch carries the fields a transition is allowed to set alongside
// the status itself.
type StatusPatch struct {
	MatchedTransporterID *types.ID
	TransporterID        *types.ID
	VehicleID            *types.ID
	CancellationReason   *string
}

// Quoter prices a booking; the estimate and breakdown are stored on the
// record at creation time.
type Quoter interface {
	Quote(ctx context.Context, distanceKm float64, b *Booking) (int64, map[string]int64, error)
}

type Service struct {
	store     Store
	estimator *geo.Estimator
	quoter    Quoter
	cfg       config.BookingConfig
}

func NewService(store Store, estimator *geo.Estimator, quoter Quoter, cfg config.BookingConfig) *Service {
	return &Service{store: store, estimator: estimator, quoter: quoter, cfg: cfg}
}

type CreateCommand struct {
	RequestID string
	UserID    types.ID

	Type Type
	Mode Mode

	WeightKg           float64
	ProductType        string
	Dimensions         string
	Perishable         bool
	NeedsRefrigeration bool
	UrgentDelivery     bool
	InsuredValue       int64
	SpecialCargo       []string

	From types.Location
	To   types.Location

	Consolidated bool
	Recurrence   json.RawMessage
}

type MatchCommand struct {
	BookingID     types.ID
	TransporterID types.ID
}

type AcceptCommand struct {
	BookingID     types.ID
	TransporterID types.ID
	VehicleID     types.ID
}

type StartCommand struct {
	BookingID types.ID
}

type CompleteCommand struct {
	BookingID types.ID
}

type CancelCommand struct {
	BookingID types.ID
	Reason    string
}

// Create persists a new pending booking and seeds its status history.
// When both endpoints carry coordinates the record is enriched with a trip
// estimate, and when a quoter is wired, with a cost breakdown.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.UserID == "" || cmd.WeightKg < 0 {
		return nil, ErrBadRequest
	}
	requestID := cmd.RequestID
	if requestID == "" {
		requestID = string(newID())
	}

	now := time.Now().UTC()
	b := &Booking{
		ID:                 newID(),
		RequestID:          requestID,
		UserID:             cmd.UserID,
		Type:               cmd.Type,
		Mode:               cmd.Mode,
		Status:             StatusPending,
		StatusVersion:      0,
		WeightKg:           cmd.WeightKg,
		ProductType:        cmd.ProductType,
		Dimensions:         cmd.Dimensions,
		Perishable:         cmd.Perishable,
		NeedsRefrigeration: cmd.NeedsRefrigeration,
		UrgentDelivery:     cmd.UrgentDelivery,
		InsuredValue:       cmd.InsuredValue,
		SpecialCargo:       cmd.SpecialCargo,
		From:               cmd.From,
		To:                 cmd.To,
		CostBreakdown:      map[string]int64{},
		Consolidated:       cmd.Consolidated,
		Recurrence:         cmd.Recurrence,
		CreatedAt:          now,
	}

	s.enrich(ctx, b)

	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	_ = s.store.AppendStatusChange(ctx, b.ID, StatusChange{
		Status:    StatusPending,
		Reason:    "booking created",
		Timestamp: now,
	})
	return b, nil
}

// enrich fills route and cost fields; both collaborators are optional and
// best-effort, a booking is valid without them.
func (s *Service) enrich(ctx context.Context, b *Booking) {
	from, okFrom := b.From.Coordinates()
	to, okTo := b.To.Coordinates()
	if s.estimator != nil && okFrom && okTo {
		est := s.estimator.TripEstimate(ctx, from, to, vehicleClassFor(b.WeightKg), b.WeightKg)
		b.ActualDistanceKm = est.DistanceKm
		b.RoutePolyline = est.Polyline
		b.EstimatedDurationMin = est.DurationMinutes
	}
	if s.quoter != nil && b.ActualDistanceKm > 0 {
		if cost, breakdown, err := s.quoter.Quote(ctx, b.ActualDistanceKm, b); err == nil {
			b.Cost = cost
			b.CostBreakdown = breakdown
		}
	}
}

// Match records the engine's transporter suggestion. A booking that is no
// longer pending, or that a concurrent writer got to first, yields
// (false, nil): matching losing a race is not an error.
func (s *Service) Match(ctx context.Context, cmd MatchCommand) (bool, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return false, err
	}
	if !CanTransition(b.Status, StatusMatched) {
		return false, nil
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusMatched, b.StatusVersion, StatusPatch{
		MatchedTransporterID: &cmd.TransporterID,
	})
	if err != nil || !ok {
		return false, err
	}
	_ = s.store.AppendStatusChange(ctx, b.ID, StatusChange{
		Status:    StatusMatched,
		Reason:    "matched to transporter " + string(cmd.TransporterID),
		Timestamp: time.Now().UTC(),
	})
	return true, nil
}

// Accept confirms the booking with a transporter and vehicle. Both ids are
// set together; an accept without a vehicle is malformed.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	if cmd.TransporterID == "" || cmd.VehicleID == "" {
		return ErrBadRequest
	}
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusAccepted) {
		return ErrInvalidState
	}
	if s.cfg.EnforceMatchedTransporter && b.MatchedTransporterID != nil && *b.MatchedTransporterID != cmd.TransporterID {
		return ErrTransporterMismatch
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusAccepted, b.StatusVersion, StatusPatch{
		TransporterID: &cmd.TransporterID,
		VehicleID:     &cmd.VehicleID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendStatusChange(ctx, b.ID, StatusChange{
		Status:    StatusAccepted,
		Reason:    "accepted by transporter " + string(cmd.TransporterID),
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	return s.transition(ctx, cmd.BookingID, StatusInProgress, "trip started", StatusPatch{})
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	return s.transition(ctx, cmd.BookingID, StatusCompleted, "trip completed", StatusPatch{})
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	reason := cmd.Reason
	if reason == "" {
		reason = DefaultCancelReason
	}
	return s.transition(ctx, cmd.BookingID, StatusCancelled, reason, StatusPatch{
		CancellationReason: &reason,
	})
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, reason string, patch StatusPatch) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, patch)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendStatusChange(ctx, b.ID, StatusChange{
		Status:    to,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []types.ID) ([]*Booking, error) {
	return s.store.GetMany(ctx, ids)
}

func (s *Service) ListPending(ctx context.Context, limit int) ([]*Booking, error) {
	return s.store.ListPending(ctx, limit)
}

func (s *Service) StatusHistory(ctx context.Context, id types.ID) ([]StatusChange, error) {
	return s.store.StatusHistory(ctx, id)
}

// vehicleClassFor picks the vehicle class used for duration fallback based
// on cargo weight.
func vehicleClassFor(weightKg float64) string {
	switch {
	case weightKg > 5000:
		return geo.VehicleLargeTruck
	case weightKg > 1000:
		return geo.VehicleSmallTruck
	default:
		return ""
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
