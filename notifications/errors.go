package notifications

import "errors"

var (
	// ErrValidation marks invalid input to a storage or service operation.
	ErrValidation = errors.New("notifications: validation failed")
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notifications: notification not found")
	// ErrDeviceNotFound is returned when a push device is not found.
	ErrDeviceNotFound = errors.New("notifications: device not found")
	// ErrDeviceGone marks a push endpoint the provider reports as permanently
	// gone. Channels wrap provider responses with it so the router can
	// deactivate the device.
	ErrDeviceGone = errors.New("notifications: push endpoint gone")
	// ErrUnknownType is returned for a type outside the closed set.
	ErrUnknownType = errors.New("notifications: unknown notification type")
)
