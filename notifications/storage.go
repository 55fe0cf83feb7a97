package notifications

import (
	"context"
	"time"
)

// Storage handles notification and settings persistence. Implementations
// must be safe for concurrent use.
type Storage interface {
	// Create stores a new notification. Fails with ErrValidation when
	// required fields are missing or ExpiresAt is already in the past.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification owned by userID.
	Get(ctx context.Context, userID, notifID string) (*Notification, error)

	// List returns non-expired notifications for a user, most recent
	// first, restartable via Offset.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks one notification as read. Returns false when the
	// notification does not exist or is not owned by userID; that case is
	// not an error. Idempotent.
	MarkRead(ctx context.Context, userID, notifID string) (bool, error)

	// MarkAllRead marks every unread notification for the user as read
	// and returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)

	// CountUnread returns the number of unread, non-expired notifications.
	CountUnread(ctx context.Context, userID string) (int, error)

	// GetSettings returns the user's settings, creating defaults on first
	// access. Idempotent and safe under concurrent first access.
	GetSettings(ctx context.Context, userID string) (Settings, error)

	// UpdateSettings persists the given settings.
	UpdateSettings(ctx context.Context, settings Settings) error
}

// DeviceStorage manages registered push endpoints.
type DeviceStorage interface {
	// RegisterDevice upserts a device keyed by its token. Re-registering
	// an existing token refreshes the record; if the token belonged to a
	// different user, the old owner's record is deactivated first.
	RegisterDevice(ctx context.Context, device Device) (Device, error)

	// DeactivateDevice marks the device inactive. The row is kept.
	DeactivateDevice(ctx context.Context, deviceID string) error

	// DeactivateDeviceByToken marks the device with the given token
	// inactive, scoped to the user.
	DeactivateDeviceByToken(ctx context.Context, userID, token string) error

	// ActiveDevices returns the user's active push endpoints.
	ActiveDevices(ctx context.Context, userID string) ([]Device, error)

	// ListDevices returns all of the user's devices, active or not.
	ListDevices(ctx context.Context, userID string) ([]Device, error)
}

// CombinedStorage is what a full deployment backs onto: one store for
// both notification records and push devices. MemoryStorage and
// pgstore.Store implement it.
type CombinedStorage interface {
	Storage
	DeviceStorage
}

// ListOptions provides filtering and pagination for List.
type ListOptions struct {
	Limit      int        // Maximum number of notifications to return (0 = no limit)
	Offset     int        // Number of notifications to skip for pagination
	OnlyUnread bool       // When true, only return unread notifications
	Types      []Type     // If specified, only return notifications of these types
	Since      *time.Time // If specified, only return notifications created after this time
}
