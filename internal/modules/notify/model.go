// README: Match-event notification messages.
package notify

import (
	"context"

	"haulmatch/internal/types"
)

type MessageType string

const (
	// TypeBookingMatched tells a shipper their booking found a transporter.
	TypeBookingMatched MessageType = "booking_matched"
	// TypeNewMatch tells a transporter they were suggested for a booking.
	TypeNewMatch MessageType = "new_match"
)

// Message is one fire-and-forget match notification. Email is an optional
// secondary channel; delivery over it is owned by the mail worker, this
// engine only records the address on the payload.
type Message struct {
	UserID      types.ID
	Type        MessageType
	BookingID   types.ID
	RequestID   string
	DeviceToken string
	Email       string
}

// Notifier delivers match events. Implementations must be safe to call
// concurrently; failures are for the caller to log, never to propagate.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
