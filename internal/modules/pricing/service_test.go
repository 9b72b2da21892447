package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulmatch/internal/modules/booking"
)

type stubRates struct {
	rate Rate
	err  error
}

func (s *stubRates) GetRate(ctx context.Context, bookingType string) (Rate, error) {
	if s.err != nil {
		return Rate{}, s.err
	}
	return s.rate, nil
}

func standardRate() *stubRates {
	return &stubRates{rate: Rate{BookingType: "general", BaseFare: 500, PerKm: 20, Currency: "INR"}}
}

func TestQuote_BaseAndDistanceOnly(t *testing.T) {
	svc := NewService(standardRate())

	total, breakdown, err := svc.Quote(context.Background(), 100, &booking.Booking{Type: booking.TypeGeneral})
	require.NoError(t, err)

	// 500 base + 100km * 20
	assert.Equal(t, int64(2500), total)
	assert.Equal(t, int64(500), breakdown[ComponentBase])
	assert.Equal(t, int64(2000), breakdown[ComponentDistance])
	assert.Equal(t, int64(0), breakdown[ComponentRefrigeration])
	assert.Equal(t, int64(0), breakdown[ComponentUrgent])
	assert.Equal(t, int64(0), breakdown[ComponentInsurance])
}

func TestQuote_AllComponentsAlwaysPresent(t *testing.T) {
	svc := NewService(standardRate())

	_, breakdown, err := svc.Quote(context.Background(), 10, &booking.Booking{})
	require.NoError(t, err)

	for _, name := range []string{ComponentBase, ComponentDistance, ComponentRefrigeration, ComponentUrgent, ComponentInsurance} {
		_, ok := breakdown[name]
		assert.True(t, ok, "missing component %q", name)
	}
}

func TestQuote_RefrigerationSurcharge(t *testing.T) {
	svc := NewService(standardRate())

	total, breakdown, err := svc.Quote(context.Background(), 100, &booking.Booking{NeedsRefrigeration: true})
	require.NoError(t, err)

	// 15% of the 2500 subtotal
	assert.Equal(t, int64(375), breakdown[ComponentRefrigeration])
	assert.Equal(t, int64(2875), total)
}

func TestQuote_UrgentSurcharge(t *testing.T) {
	svc := NewService(standardRate())

	total, breakdown, err := svc.Quote(context.Background(), 100, &booking.Booking{UrgentDelivery: true})
	require.NoError(t, err)

	// 20% of the 2500 subtotal
	assert.Equal(t, int64(500), breakdown[ComponentUrgent])
	assert.Equal(t, int64(3000), total)
}

func TestQuote_InsurancePerMille(t *testing.T) {
	svc := NewService(standardRate())

	total, breakdown, err := svc.Quote(context.Background(), 100, &booking.Booking{InsuredValue: 200000})
	require.NoError(t, err)

	// 5 per mille of the declared value
	assert.Equal(t, int64(1000), breakdown[ComponentInsurance])
	assert.Equal(t, int64(3500), total)
}

func TestQuote_StackedSurcharges(t *testing.T) {
	svc := NewService(standardRate())

	total, breakdown, err := svc.Quote(context.Background(), 50, &booking.Booking{
		NeedsRefrigeration: true,
		UrgentDelivery:     true,
		InsuredValue:       100000,
	})
	require.NoError(t, err)

	// subtotal = 500 + 1000 = 1500
	assert.Equal(t, int64(225), breakdown[ComponentRefrigeration])
	assert.Equal(t, int64(300), breakdown[ComponentUrgent])
	assert.Equal(t, int64(500), breakdown[ComponentInsurance])
	assert.Equal(t, int64(2525), total)
}

func TestQuote_RateLookupFailure(t *testing.T) {
	svc := NewService(&stubRates{err: ErrRateNotFound})

	_, _, err := svc.Quote(context.Background(), 100, &booking.Booking{Type: booking.TypeAgricultural})
	assert.ErrorIs(t, err, ErrRateNotFound)
}
