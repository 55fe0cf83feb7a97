package realtime

import (
	"time"

	"github.com/lumenlearn/notify/notifications"
)

// Close codes used on top of the standard WebSocket set.
const (
	CloseNormal           = 1000
	CloseInternalError    = 1011
	CloseHeartbeatTimeout = 4000
	CloseAuthFailure      = 4001
	CloseConnectionLimit  = 4003
)

// Server to client frame types.
const (
	frameConnectionEstablished = "connection_established"
	framePing                  = "ping"
	frameNotification          = "notification"
	frameUnreadCountUpdate     = "unread_count_update"
	frameRecentNotifications   = "recent_notifications"
	frameSubscriptionUpdate    = "subscription_update"
	frameError                 = "error"
)

// Soft error codes carried in error frames. The connection stays open.
const (
	errCodeValidation    = "validation_error"
	errCodeRateLimit     = "rate_limit_exceeded"
	errCodeUnknownAction = "unknown_action"
	errCodeInternal      = "internal_error"
)

// clientMessage is the union of every inbound frame. Liveness replies use
// "type", everything else uses "action"; the original web client sends
// subscription changes with both fields set.
type clientMessage struct {
	Type             string `json:"type,omitempty"`
	Action           string `json:"action,omitempty"`
	NotificationType string `json:"notification_type,omitempty"`
	NotificationID   string `json:"notification_id,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

type connectionEstablishedFrame struct {
	Type                string                       `json:"type"`
	ConnectionID        string                       `json:"connection_id"`
	UnreadCount         int                          `json:"unread_count"`
	RecentNotifications []notifications.Notification `json:"recent_notifications"`
	SupportedTypes      []notifications.Type         `json:"supported_notification_types"`
	Subscriptions       []notifications.Type         `json:"subscriptions"`
}

type pingFrame struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	FramesIn   uint64    `json:"frames_in"`
	FramesOut  uint64    `json:"frames_out"`
	QueueDepth int       `json:"queue_depth"`
}

type notificationFrame struct {
	Type         string                     `json:"type"`
	Notification notifications.Notification `json:"notification"`
}

type unreadCountFrame struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type recentNotificationsFrame struct {
	Type          string                       `json:"type"`
	Notifications []notifications.Notification `json:"notifications"`
}

type subscriptionUpdateFrame struct {
	Type             string               `json:"type"`
	NotificationType notifications.Type   `json:"notification_type"`
	Subscribed       bool                 `json:"subscribed"`
	Subscriptions    []notifications.Type `json:"subscriptions"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorFrame(code, message string) errorFrame {
	return errorFrame{Type: frameError, Code: code, Message: message}
}
