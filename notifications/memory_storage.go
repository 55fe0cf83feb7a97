package notifications

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of Storage and
// DeviceStorage. Suitable for development and testing.
type MemoryStorage struct {
	notifications map[string][]Notification // userID -> notifications
	settings      map[string]Settings       // userID -> settings
	devices       map[string]Device         // device ID -> device
	tokenOwner    map[string]string         // token -> active device ID
	mu            sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string][]Notification),
		settings:      make(map[string]Settings),
		devices:       make(map[string]Device),
		tokenOwner:    make(map[string]string),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return fmt.Errorf("%w: notification ID is required", ErrValidation)
	}
	if notif.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	if !notif.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, notif.Type)
	}
	if notif.ExpiresAt != nil && notif.ExpiresAt.Before(time.Now()) {
		return fmt.Errorf("%w: expires_at is in the past", ErrValidation)
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], notif)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notifID {
			// Copy so callers cannot mutate stored data.
			notif := n
			return &notif, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.notifications[userID] {
		if n.IsExpired() {
			continue
		}
		if opts.OnlyUnread && n.Read {
			continue
		}
		if len(opts.Types) > 0 && !containsType(opts.Types, n.Type) {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, n)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID, notifID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifs := s.notifications[userID]
	for i := range notifs {
		if notifs[i].ID == notifID {
			notifs[i].MarkAsRead()
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	notifs := s.notifications[userID]
	for i := range notifs {
		if !notifs[i].Read {
			notifs[i].MarkAsRead()
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read && !n.IsExpired() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) GetSettings(ctx context.Context, userID string) (Settings, error) {
	if userID == "" {
		return Settings{}, fmt.Errorf("%w: user ID is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if settings, ok := s.settings[userID]; ok {
		return settings, nil
	}
	settings := DefaultSettings(userID)
	s.settings[userID] = settings
	return settings, nil
}

func (s *MemoryStorage) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	if settings.QuietHours != nil {
		if err := settings.QuietHours.Validate(); err != nil {
			return err
		}
	}
	settings.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = settings
	return nil
}

func (s *MemoryStorage) RegisterDevice(ctx context.Context, device Device) (Device, error) {
	if device.UserID == "" {
		return Device{}, fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	if device.Token == "" {
		return Device{}, fmt.Errorf("%w: device token is required", ErrValidation)
	}
	if !device.DeviceType.Valid() {
		return Device{}, fmt.Errorf("%w: unknown device type %q", ErrValidation, device.DeviceType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.tokenOwner[device.Token]; ok {
		existing := s.devices[id]
		if existing.UserID == device.UserID {
			// Idempotent re-registration: keep identity, refresh metadata.
			existing.DeviceType = device.DeviceType
			existing.DeviceName = device.DeviceName
			existing.IsActive = true
			s.devices[id] = existing
			return existing, nil
		}
		// Token moved to a different user: old owner's row stays, inactive.
		existing.IsActive = false
		s.devices[id] = existing
	}

	device.ID = uuid.New().String()
	device.IsActive = true
	device.CreatedAt = time.Now()
	s.devices[device.ID] = device
	s.tokenOwner[device.Token] = device.ID
	return device, nil
}

func (s *MemoryStorage) DeactivateDevice(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}
	d.IsActive = false
	s.devices[deviceID] = d
	return nil
}

func (s *MemoryStorage) DeactivateDeviceByToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tokenOwner[token]
	if !ok {
		return ErrDeviceNotFound
	}
	d := s.devices[id]
	if d.UserID != userID {
		return ErrDeviceNotFound
	}
	d.IsActive = false
	s.devices[id] = d
	return nil
}

func (s *MemoryStorage) ActiveDevices(ctx context.Context, userID string) ([]Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var devices []Device
	for _, d := range s.devices {
		if d.UserID == userID && d.IsActive {
			devices = append(devices, d)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].CreatedAt.Before(devices[j].CreatedAt) })
	return devices, nil
}

func (s *MemoryStorage) ListDevices(ctx context.Context, userID string) ([]Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var devices []Device
	for _, d := range s.devices {
		if d.UserID == userID {
			devices = append(devices, d)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].CreatedAt.Before(devices[j].CreatedAt) })
	return devices, nil
}

func containsType(types []Type, t Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
