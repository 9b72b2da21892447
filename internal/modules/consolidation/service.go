// README: Consolidation engine: merges pending bookings and hands the result to matching.
package consolidation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"haulmatch/internal/config"
	"haulmatch/internal/logger"
	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/matching"
	"haulmatch/internal/modules/transporter"
	"haulmatch/internal/types"
)

// ErrInsufficientBookings is returned when fewer than two bookings are
// offered for consolidation; merging one booking is meaningless.
var ErrInsufficientBookings = errors.New("consolidation requires at least two bookings")

// Result is the outcome of a consolidation: the synthetic booking and the
// transporter (possibly nil) the matching flow selected for it.
type Result struct {
	Booking     *booking.Booking
	Transporter *transporter.Candidate
}

type Service struct {
	bookings *booking.Service
	matcher  *matching.Service
	cfg      config.ConsolidationConfig
}

func NewService(bookings *booking.Service, matcher *matching.Service, cfg config.ConsolidationConfig) *Service {
	return &Service{bookings: bookings, matcher: matcher, cfg: cfg}
}

// Consolidate merges the referenced bookings into one synthetic pending
// booking and immediately runs matching against it. The id order is
// caller-supplied and trusted: the merged route runs from the first
// booking's pickup to the last booking's drop-off.
func (s *Service) Consolidate(ctx context.Context, bookingIDs []types.ID) (Result, error) {
	if len(bookingIDs) < 2 {
		return Result{}, ErrInsufficientBookings
	}

	sources, err := s.bookings.GetMany(ctx, bookingIDs)
	if err != nil {
		return Result{}, err
	}

	merged, err := s.bookings.Create(ctx, mergeCommand(sources))
	if err != nil {
		return Result{}, err
	}

	if s.cfg.CloseSources {
		s.closeSources(ctx, sources, merged.ID)
	}

	candidate, err := s.matcher.MatchBooking(ctx, merged.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: merged, Transporter: candidate}, nil
}

// MatchConsolidatedBookings is the orchestration entry point: consolidate,
// then report what matching produced.
func (s *Service) MatchConsolidatedBookings(ctx context.Context, bookingIDs []types.ID) (Result, error) {
	return s.Consolidate(ctx, bookingIDs)
}

// mergeCommand folds the source bookings into one creation command. Weight
// and insured value are summed, handling flags are or-ed so the merged
// load never loses a constraint, and the request ids concatenate so the
// synthetic booking stays traceable to its origins.
func mergeCommand(sources []*booking.Booking) booking.CreateCommand {
	first, last := sources[0], sources[len(sources)-1]

	cmd := booking.CreateCommand{
		RequestID:    joinRequestIDs(sources),
		UserID:       first.UserID,
		Type:         first.Type,
		Mode:         first.Mode,
		ProductType:  first.ProductType,
		From:         first.From,
		To:           last.To,
		Consolidated: true,
	}

	cargo := make(map[string]struct{})
	for _, src := range sources {
		cmd.WeightKg += src.WeightKg
		cmd.InsuredValue += src.InsuredValue
		cmd.Perishable = cmd.Perishable || src.Perishable
		cmd.NeedsRefrigeration = cmd.NeedsRefrigeration || src.NeedsRefrigeration
		cmd.UrgentDelivery = cmd.UrgentDelivery || src.UrgentDelivery
		for _, item := range src.SpecialCargo {
			if _, ok := cargo[item]; ok {
				continue
			}
			cargo[item] = struct{}{}
			cmd.SpecialCargo = append(cmd.SpecialCargo, item)
		}
	}
	return cmd
}

func joinRequestIDs(sources []*booking.Booking) string {
	ids := make([]string, len(sources))
	for i, src := range sources {
		ids[i] = src.RequestID
	}
	return strings.Join(ids, "_")
}

// closeSources cancels the constituent bookings so they cannot be matched
// twice. Best-effort: a source that raced into another state stays as-is.
func (s *Service) closeSources(ctx context.Context, sources []*booking.Booking, mergedID types.ID) {
	reason := fmt.Sprintf("consolidated into booking %s", string(mergedID))
	for _, src := range sources {
		if err := s.bookings.Cancel(ctx, booking.CancelCommand{BookingID: src.ID, Reason: reason}); err != nil {
			logger.Get().Warn("closing consolidated source booking failed",
				zap.String("booking_id", string(src.ID)), zap.Error(err))
		}
	}
}
