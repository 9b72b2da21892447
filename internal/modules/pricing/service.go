// README: Pricing service computes booking cost with a named surcharge breakdown.
package pricing

import (
	"context"

	"haulmatch/internal/modules/booking"
)

// RateSource resolves the tariff for a booking type.
type RateSource interface {
	GetRate(ctx context.Context, bookingType string) (Rate, error)
}

type Service struct {
	rates RateSource
}

func NewService(rates RateSource) *Service {
	return &Service{rates: rates}
}

// Quote prices a booking over the given road distance. The returned
// breakdown always contains every component name; inapplicable surcharges
// are zero.
func (s *Service) Quote(ctx context.Context, distanceKm float64, b *booking.Booking) (int64, map[string]int64, error) {
	rate, err := s.rates.GetRate(ctx, string(b.Type))
	if err != nil {
		return 0, nil, err
	}

	distance := int64(distanceKm * float64(rate.PerKm))
	subtotal := rate.BaseFare + distance

	breakdown := map[string]int64{
		ComponentBase:          rate.BaseFare,
		ComponentDistance:      distance,
		ComponentRefrigeration: 0,
		ComponentUrgent:        0,
		ComponentInsurance:     0,
	}
	if b.NeedsRefrigeration {
		breakdown[ComponentRefrigeration] = subtotal * refrigerationPct / 100
	}
	if b.UrgentDelivery {
		breakdown[ComponentUrgent] = subtotal * urgentPct / 100
	}
	if b.InsuredValue > 0 {
		breakdown[ComponentInsurance] = b.InsuredValue * insurancePerMille / 1000
	}

	total := int64(0)
	for _, v := range breakdown {
		total += v
	}
	return total, breakdown, nil
}
