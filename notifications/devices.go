package notifications

import "time"

// DeviceType identifies the platform a push endpoint belongs to.
type DeviceType string

const (
	DeviceIOS     DeviceType = "ios"
	DeviceAndroid DeviceType = "android"
	DeviceWeb     DeviceType = "web"
)

// Valid reports whether dt is a known device type.
func (dt DeviceType) Valid() bool {
	switch dt {
	case DeviceIOS, DeviceAndroid, DeviceWeb:
		return true
	}
	return false
}

// Device is a registered push endpoint. Devices are deactivated rather
// than deleted: when the provider reports the endpoint gone, or when the
// same token is re-registered to a different user.
type Device struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Token      string     `json:"token"` // opaque push-subscription blob
	DeviceType DeviceType `json:"device_type"`
	DeviceName string     `json:"device_name,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}
