package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenlearn/notify/pkg/logger"
)

// Broadcaster fans a notification out to every live socket session of its
// user. Implementations must not block on slow consumers. The in-process
// hub implements this; a pub/sub-backed hub would slot in behind the same
// interface for multi-instance deployments.
type Broadcaster interface {
	Broadcast(ctx context.Context, notif Notification)
}

// PushSender delivers one notification to one registered device. A
// permanently dead endpoint is reported by wrapping ErrDeviceGone.
type PushSender interface {
	Send(ctx context.Context, device Device, notif Notification) error
}

// EmailDeliverer sends the email rendition of a notification.
type EmailDeliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// Router decides which channels a stored notification goes out on and
// invokes them. Channel failures are isolated: each is logged and never
// propagated to the caller, and one channel failing does not skip the
// others.
type Router struct {
	storage     Storage
	devices     DeviceStorage
	broadcaster Broadcaster
	push        PushSender
	email       EmailDeliverer
	cache       *settingsCache
	logger      *slog.Logger
	now         func() time.Time
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithBroadcaster sets the socket fan-out channel.
func WithBroadcaster(b Broadcaster) RouterOption {
	return func(r *Router) { r.broadcaster = b }
}

// WithPushSender enables the push channel. Requires a DeviceStorage.
func WithPushSender(p PushSender, devices DeviceStorage) RouterOption {
	return func(r *Router) {
		r.push = p
		r.devices = devices
	}
}

// WithEmailDeliverer enables the email channel.
func WithEmailDeliverer(e EmailDeliverer) RouterOption {
	return func(r *Router) { r.email = e }
}

// WithRouterLogger sets the logger for the Router.
func WithRouterLogger(log *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = log }
}

// WithSettingsTTL sets how long cached settings are trusted before being
// re-read from storage. Zero disables caching.
func WithSettingsTTL(ttl time.Duration) RouterOption {
	return func(r *Router) { r.cache = newSettingsCache(ttl) }
}

// NewRouter creates a Router over the given storage. Channels are off
// until configured via options.
func NewRouter(storage Storage, opts ...RouterOption) *Router {
	r := &Router{
		storage: storage,
		cache:   newSettingsCache(defaultSettingsTTL),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Deliver routes one stored notification. It never returns an error:
// socket broadcast is always attempted, push goes out when the user's
// filter and push toggle allow it, and email is reserved for high
// priority.
func (r *Router) Deliver(ctx context.Context, notif Notification) {
	// Socket first. The hub layer sees everything; each connection's own
	// subscription set is the final gate.
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(ctx, notif)
	}

	settings, err := r.Settings(ctx, notif.UserID)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to load settings, skipping push and email",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
		return
	}

	deliver := ShouldDeliver(settings, notif.Type, notif.Priority, r.now())

	if deliver && settings.PushEnabled && r.push != nil && r.devices != nil {
		r.deliverPush(ctx, notif)
	}

	if deliver && settings.EmailEnabled && notif.Priority == PriorityHigh && r.email != nil {
		if err := r.email.Deliver(ctx, notif); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "email delivery failed",
				logger.NotificationID(notif.ID),
				logger.UserID(notif.UserID),
				logger.Channel("email"),
				logger.Error(err),
			)
		}
	}
}

// deliverPush sends to every active device. A gone endpoint deactivates
// the device row; other failures only log.
func (r *Router) deliverPush(ctx context.Context, notif Notification) {
	devices, err := r.devices.ActiveDevices(ctx, notif.UserID)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to list push devices",
			logger.UserID(notif.UserID),
			logger.Channel("push"),
			logger.Error(err),
		)
		return
	}

	for _, device := range devices {
		err := r.push.Send(ctx, device, notif)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrDeviceGone) {
			if derr := r.devices.DeactivateDevice(ctx, device.ID); derr != nil {
				r.logger.LogAttrs(ctx, slog.LevelError, "failed to deactivate gone device",
					logger.DeviceID(device.ID),
					logger.Error(derr),
				)
			}
			continue
		}
		r.logger.LogAttrs(ctx, slog.LevelError, "push delivery failed",
			logger.NotificationID(notif.ID),
			logger.DeviceID(device.ID),
			logger.Channel("push"),
			logger.Error(err),
		)
	}
}

// Settings returns the user's settings through the router's TTL cache.
func (r *Router) Settings(ctx context.Context, userID string) (Settings, error) {
	if cached, ok := r.cache.get(userID); ok {
		return cached, nil
	}
	settings, err := r.storage.GetSettings(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	r.cache.put(userID, settings)
	return settings, nil
}

// InvalidateSettings drops the cached settings for a user. Call after
// persisting a settings change so the next delivery sees it.
func (r *Router) InvalidateSettings(userID string) {
	r.cache.invalidate(userID)
}

const defaultSettingsTTL = 30 * time.Second

// settingsCache is a small time-boxed cache scoped to the Router. Entries
// expire after the TTL; explicit invalidation covers settings updates
// from live sessions.
type settingsCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]settingsEntry
}

type settingsEntry struct {
	settings Settings
	storedAt time.Time
}

func newSettingsCache(ttl time.Duration) *settingsCache {
	return &settingsCache{
		ttl:     ttl,
		entries: make(map[string]settingsEntry),
	}
}

func (c *settingsCache) get(userID string) (Settings, bool) {
	if c.ttl <= 0 {
		return Settings{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok || time.Since(entry.storedAt) > c.ttl {
		return Settings{}, false
	}
	return entry.settings, true
}

func (c *settingsCache) put(userID string, settings Settings) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[userID] = settingsEntry{settings: settings, storedAt: time.Now()}
	c.mu.Unlock()
}

func (c *settingsCache) invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
