package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/lumenlearn/notify/notifications"
)

// Sender delivers notifications to browser push endpoints using the Web
// Push protocol. It implements notifications.PushSender; a device's Token
// is the subscription JSON the browser handed out.
type Sender struct {
	cfg  Config
	send sendFunc
}

// matches webpush.SendNotificationWithContext, swappable in tests
type sendFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// NewSender creates a Web Push sender.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, ErrMissingVAPIDKeys
	}
	if cfg.Subscriber == "" {
		return nil, ErrMissingSubscriber
	}
	return &Sender{cfg: cfg, send: webpush.SendNotificationWithContext}, nil
}

// Send implements notifications.PushSender. A 404 or 410 from the push
// service means the endpoint no longer exists; that is reported by
// wrapping notifications.ErrDeviceGone so the router deactivates the
// device.
func (s *Sender) Send(ctx context.Context, device notifications.Device, notif notifications.Notification) error {
	sub, err := parseSubscription(device.Token)
	if err != nil {
		return err
	}

	message, err := json.Marshal(pushPayload{
		NotificationID: notif.ID,
		Type:           string(notif.Type),
		Priority:       string(notif.Priority),
		Title:          notif.Title,
		Message:        notif.Message,
		Payload:        notif.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	resp, err := s.send(ctx, message, sub, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             int(s.cfg.TTL.Seconds()),
		Urgency:         urgencyFor(notif.Priority),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case isGoneStatus(resp.StatusCode):
		return fmt.Errorf("%w: endpoint returned %d", notifications.ErrDeviceGone, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: push service returned %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

// pushPayload is the JSON body the service worker receives.
type pushPayload struct {
	NotificationID string         `json:"notification_id"`
	Type           string         `json:"type"`
	Priority       string         `json:"priority"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Payload        map[string]any `json:"payload,omitempty"`
}

func parseSubscription(token string) (*webpush.Subscription, error) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
	}
	if sub.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing endpoint", ErrInvalidSubscription)
	}
	return &sub, nil
}

// isGoneStatus reports a permanently dead endpoint. Push services answer
// 410 Gone for expired subscriptions and 404 for unknown ones.
func isGoneStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusGone
}

func urgencyFor(p notifications.Priority) webpush.Urgency {
	switch p {
	case notifications.PriorityHigh:
		return webpush.UrgencyHigh
	case notifications.PriorityLow:
		return webpush.UrgencyLow
	default:
		return webpush.UrgencyNormal
	}
}
