// README: Transporter candidate projection and subscription window facts.
package transporter

import (
	"strings"
	"time"

	"haulmatch/internal/types"
)

// Approval states of a transporter record.
const (
	StatusApproved      = "approved"
	StatusPendingReview = "pending_review"
	StatusSuspended     = "suspended"
)

// urgentVehicleTag marks a vehicle type as capable of urgent deliveries.
// The tag is embedded in the free-form vehicle type string.
const urgentVehicleTag = "urgent"

// Candidate is the read-only projection of a transporter used during
// matching. It is hydrated from the directory and the position index, never
// persisted by this engine.
type Candidate struct {
	ID                types.ID
	UserID            types.ID
	VehicleCapacityKg float64
	LastKnownLocation types.Location
	Refrigerated      bool
	VehicleType       string
	Rating            float64
	AcceptingBooking  bool
	Status            string
	Email             string
	NotificationPrefs []string
	DeviceToken       string
}

// UrgentCapable reports whether the candidate's vehicle type carries the
// urgent capability tag.
func (c Candidate) UrgentCapable() bool {
	return containsTag(c.VehicleType, urgentVehicleTag)
}

// SubscriptionWindow is an external fact consumed from the subscription
// collaborator; this engine never writes it.
type SubscriptionWindow struct {
	UserID   types.ID
	Status   string
	IsActive bool
	EndDate  time.Time
}

// Active reports whether the window admits its user to matching at t.
func (w SubscriptionWindow) Active(t time.Time) bool {
	return w.Status == "active" && w.IsActive && !w.EndDate.Before(t)
}

func containsTag(s, tag string) bool {
	return strings.Contains(strings.ToLower(s), tag)
}
