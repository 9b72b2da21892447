// README: Booking aggregate, status definitions, and the allowed state flow.
package booking

import (
	"encoding/json"
	"time"

	"haulmatch/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusMatched    Status = "matched"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Type string

const (
	TypeGeneral      Type = "general"
	TypeAgricultural Type = "agricultural"
)

type Mode string

const (
	ModeInstant   Mode = "instant"
	ModeScheduled Mode = "scheduled"
)

// DefaultCancelReason is recorded when a cancellation carries no reason.
const DefaultCancelReason = "cancelled without a stated reason"

// Booking is the unit of transport demand.
type Booking struct {
	ID        types.ID
	RequestID string
	UserID    types.ID

	Type Type
	Mode Mode

	Status        Status
	StatusVersion int

	// MatchedTransporterID is the engine's suggestion; TransporterID and
	// VehicleID are set together when a transporter accepts.
	MatchedTransporterID *types.ID
	TransporterID        *types.ID
	VehicleID            *types.ID

	WeightKg           float64
	ProductType        string
	Dimensions         string
	Perishable         bool
	NeedsRefrigeration bool
	UrgentDelivery     bool
	InsuredValue       int64
	SpecialCargo       []string

	From                 types.Location
	To                   types.Location
	ActualDistanceKm     float64
	RoutePolyline        string
	EstimatedDurationMin int

	Cost          int64
	CostBreakdown map[string]int64

	Consolidated bool
	// Recurrence is an opaque descriptor owned by the scheduling layer.
	Recurrence json.RawMessage

	CreatedAt          time.Time
	MatchedAt          *time.Time
	AcceptedAt         *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status    Status
	Reason    string
	Timestamp time.Time
}

// AllowedTransitions represents the booking state flow as code.
// Cancellation is reachable from every non-terminal state except
// in_progress; completed and cancelled are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusMatched, StatusCancelled},
	StatusMatched:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
