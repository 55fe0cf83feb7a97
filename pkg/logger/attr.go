package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// ConnectionID records the WebSocket session identifier under the key "connection_id".
func ConnectionID(id string) slog.Attr {
	return slog.String("connection_id", id)
}

// DeviceID records the push device identifier under the key "device_id".
func DeviceID(id string) slog.Attr {
	return slog.String("device_id", id)
}

// Channel records the delivery channel name under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// NotificationType records the notification type under the key "notification_type".
func NotificationType(t string) slog.Attr {
	return slog.String("notification_type", t)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under the given key.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}
