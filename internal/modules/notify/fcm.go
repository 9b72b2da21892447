// README: FCM-backed notifier for match events.
package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"haulmatch/internal/logger"
)

// FCMNotifier delivers match events as FCM data messages to the user's
// registered device.
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(client *messaging.Client) *FCMNotifier {
	return &FCMNotifier{client: client}
}

func (n *FCMNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.DeviceToken == "" {
		return fmt.Errorf("no device token for user %s", string(msg.UserID))
	}

	payload := &messaging.Message{
		Token: msg.DeviceToken,
		Data: map[string]string{
			"type":       string(msg.Type),
			"booking_id": string(msg.BookingID),
			"request_id": msg.RequestID,
			"email":      msg.Email,
		},
		Notification: notificationFor(msg.Type),
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	messageID, err := n.client.Send(ctx, payload)
	if err != nil {
		return fmt.Errorf("sending FCM to token %s: %w", msg.DeviceToken, err)
	}

	logger.Get().Debug("FCM sent",
		zap.String("booking_id", string(msg.BookingID)),
		zap.String("message_id", messageID))
	return nil
}

func notificationFor(t MessageType) *messaging.Notification {
	switch t {
	case TypeNewMatch:
		return &messaging.Notification{
			Title: "New freight match",
			Body:  "A booking near you is waiting for confirmation",
		}
	default:
		return &messaging.Notification{
			Title: "Transporter found",
			Body:  "Your booking has been matched with a transporter",
		}
	}
}
