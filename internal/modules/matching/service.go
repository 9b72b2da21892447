// README: Matching orchestrator: candidate pool, selection, match transition, notifications.
package matching

import (
	"context"
	"time"

	"go.uber.org/zap"

	"haulmatch/internal/config"
	"haulmatch/internal/logger"
	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/notify"
	"haulmatch/internal/modules/transporter"
	"haulmatch/internal/types"
)

// sweepBatchSize bounds how many pending bookings one sweep tick retries.
const sweepBatchSize = 50

// Pool produces and filters matching candidates.
type Pool interface {
	ActiveSubscribed(ctx context.Context) ([]transporter.Candidate, error)
	IsEligible(c transporter.Candidate, b *booking.Booking) bool
}

// TokenSource resolves a user's notification endpoints.
type TokenSource interface {
	Endpoints(ctx context.Context, userID types.ID) (deviceToken, email string, err error)
}

type Service struct {
	bookings *booking.Service
	pool     Pool
	notifier notify.Notifier
	tokens   TokenSource
	cfg      config.MatchingConfig
}

func NewService(bookings *booking.Service, pool Pool, notifier notify.Notifier, tokens TokenSource, cfg config.MatchingConfig) *Service {
	return &Service{bookings: bookings, pool: pool, notifier: notifier, tokens: tokens, cfg: cfg}
}

// MatchBooking finds the best eligible transporter for a pending booking
// and records the match. A nil candidate with a nil error means no match
// was possible: the booking was not pending, no transporter qualified, or
// a concurrent writer won the status race. The booking stays pending in
// the latter two cases and is retried by the next sweep.
func (s *Service) MatchBooking(ctx context.Context, bookingID types.ID) (*transporter.Candidate, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusPending {
		return nil, nil
	}

	candidates, err := s.pool.ActiveSubscribed(ctx)
	if err != nil {
		return nil, err
	}

	eligible := candidates[:0]
	for _, c := range candidates {
		if s.pool.IsEligible(c, b) {
			eligible = append(eligible, c)
		}
	}

	best := SelectBest(eligible)
	if best == nil {
		return nil, nil
	}

	matched, err := s.bookings.Match(ctx, booking.MatchCommand{
		BookingID:     b.ID,
		TransporterID: best.ID,
	})
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, nil
	}

	s.notifyMatch(ctx, b, best)
	return best, nil
}

// notifyMatch fires the match events. Delivery is best-effort: a failed
// notification never unwinds a recorded match.
func (s *Service) notifyMatch(ctx context.Context, b *booking.Booking, c *transporter.Candidate) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notify.Message{
		UserID:      c.UserID,
		Type:        notify.TypeNewMatch,
		BookingID:   b.ID,
		RequestID:   b.RequestID,
		DeviceToken: c.DeviceToken,
		Email:       c.Email,
	}); err != nil {
		logger.Get().Warn("transporter match notification failed",
			zap.String("booking_id", string(b.ID)), zap.Error(err))
	}

	shipperToken, shipperEmail := "", ""
	if s.tokens != nil {
		if token, email, err := s.tokens.Endpoints(ctx, b.UserID); err == nil {
			shipperToken, shipperEmail = token, email
		}
	}
	if err := s.notifier.Notify(ctx, notify.Message{
		UserID:      b.UserID,
		Type:        notify.TypeBookingMatched,
		BookingID:   b.ID,
		RequestID:   b.RequestID,
		DeviceToken: shipperToken,
		Email:       shipperEmail,
	}); err != nil {
		logger.Get().Warn("shipper match notification failed",
			zap.String("booking_id", string(b.ID)), zap.Error(err))
	}
}

// RunSweep retries pending bookings on a fixed interval until ctx is done.
func (s *Service) RunSweep(ctx context.Context) {
	interval := time.Duration(s.cfg.SweepIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context) {
	pending, err := s.bookings.ListPending(ctx, sweepBatchSize)
	if err != nil {
		logger.Get().Warn("matching sweep: listing pending bookings failed", zap.Error(err))
		return
	}
	for _, b := range pending {
		if _, err := s.MatchBooking(ctx, b.ID); err != nil {
			logger.Get().Warn("matching sweep: match attempt failed",
				zap.String("booking_id", string(b.ID)), zap.Error(err))
		}
	}
}
