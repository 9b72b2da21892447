// README: Freight rate definition per booking type.
package pricing

// Rate is the tariff for one booking type.
type Rate struct {
	BookingType string
	BaseFare    int64
	PerKm       int64
	Currency    string
}

// Surcharge factors applied on top of the base+distance subtotal.
const (
	// refrigerationPct is charged when the cargo needs an actively cooled
	// vehicle.
	refrigerationPct = 15
	// urgentPct is charged for urgent-delivery bookings.
	urgentPct = 20
	// insurancePerMille is charged per thousand of declared insured value.
	insurancePerMille = 5
)

// Breakdown component names. Every quote carries all of them; components
// that do not apply are zero.
const (
	ComponentBase          = "base"
	ComponentDistance      = "distance"
	ComponentRefrigeration = "refrigeration"
	ComponentUrgent        = "urgent"
	ComponentInsurance     = "insurance"
)
