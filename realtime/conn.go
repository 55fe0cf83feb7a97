package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/logger"
	"github.com/lumenlearn/notify/pkg/ratelimiter"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendQueueSize  = 64

	defaultHeartbeatInterval = 30 * time.Second
	// Missed pongs tolerated before the connection is declared half-open.
	heartbeatMisses = 3

	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// SettingsInvalidator drops cached settings after a live session persists
// a change. notifications.Router implements it.
type SettingsInvalidator interface {
	InvalidateSettings(userID string)
}

// Conn owns one live WebSocket session: inbound parsing, the outbound
// queue, the heartbeat, the rate limiter, and the live subscription set.
// All sub-tasks hang off one context so teardown is a single cancel.
type Conn struct {
	id      string
	userID  string
	ws      *websocket.Conn
	hub     *Hub
	storage notifications.Storage

	invalidator       SettingsInvalidator
	limiter           *ratelimiter.Bucket
	logger            *slog.Logger
	metrics           *Metrics
	heartbeatInterval time.Duration

	send   chan any
	ctx    context.Context
	cancel context.CancelFunc
	doneCh chan struct{}

	subsMu sync.RWMutex
	subs   map[notifications.Type]struct{}

	lastPong  atomic.Int64 // unix nano
	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	startedAt time.Time

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

// ID returns the ephemeral session identifier.
func (c *Conn) ID() string { return c.id }

// UserID returns the authenticated owner.
func (c *Conn) UserID() string { return c.userID }

// Subscribed reports whether the live set currently includes t.
func (c *Conn) Subscribed(t notifications.Type) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	_, ok := c.subs[t]
	return ok
}

// subscriptions returns the live set sorted for stable frames.
func (c *Conn) subscriptions() []notifications.Type {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	out := make([]notifications.Type, 0, len(c.subs))
	for t := range c.subs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// deliver is the hub-facing entry point. The connection applies its own
// subscription filter: two sessions of the same user may have diverged
// after one called unsubscribe, so each decides independently. Matching
// notifications are queued FIFO, followed by a fresh unread count.
func (c *Conn) deliver(ctx context.Context, notif notifications.Notification) {
	if !c.Subscribed(notif.Type) {
		c.metrics.FilteredSocket.Inc()
		return
	}

	c.enqueue(notificationFrame{Type: frameNotification, Notification: notif})
	c.metrics.DeliveredSocket.Inc()

	if count, err := c.storage.CountUnread(ctx, c.userID); err == nil {
		c.enqueue(unreadCountFrame{Type: frameUnreadCountUpdate, Count: count})
	}
}

// enqueue hands a frame to the writer without ever blocking the caller.
// A full queue means the peer stopped draining; the connection is closed
// rather than letting backpressure reach the broadcaster.
func (c *Conn) enqueue(frame any) {
	select {
	case c.send <- frame:
	default:
		c.metrics.DroppedFrames.Inc()
		c.Close(CloseInternalError, "send queue overflow")
	}
}

// Close starts teardown. Idempotent: the first caller wins the code and
// reason, later calls are no-ops. Cleanup itself happens in the write
// pump, which observes the cancelled context, sends the close frame, and
// tears the socket down.
func (c *Conn) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.hub.Unregister(c)
		c.cancel()
	})
}

func (c *Conn) done() <-chan struct{} { return c.doneCh }

// run starts the per-connection tasks. The caller has already registered
// the connection and sent the handshake frame.
func (c *Conn) run() {
	go c.writePump()
	go c.readPump()
}

// readPump owns all reads from the socket. It exits on any read error,
// which covers both clean client closes and dead peers; teardown is
// triggered either way and is idempotent.
func (c *Conn) readPump() {
	defer c.Close(CloseNormal, "peer closed")

	c.ws.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.LogAttrs(c.ctx, slog.LevelDebug, "read error",
					logger.ConnectionID(c.id),
					logger.Error(err),
				)
			}
			return
		}
		c.framesIn.Add(1)
		c.metrics.FramesIn.Inc()
		c.handleMessage(data)
	}
}

// writePump owns all writes: queued frames, heartbeat pings, and the
// final close frame. Closing the socket here unblocks readPump, so both
// pumps always exit together.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.teardown()
			return

		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				c.Close(CloseInternalError, "write failed")
				continue
			}
			c.framesOut.Add(1)
			c.metrics.FramesOut.Inc()

		case <-ticker.C:
			if c.pongOverdue() {
				c.metrics.HeartbeatTimeouts.Inc()
				c.logger.LogAttrs(c.ctx, slog.LevelInfo, "heartbeat timeout",
					logger.ConnectionID(c.id),
					logger.UserID(c.userID),
					logger.Duration("session_duration", time.Since(c.startedAt)),
					slog.Uint64("frames_in", c.framesIn.Load()),
					slog.Uint64("frames_out", c.framesOut.Load()),
				)
				c.Close(CloseHeartbeatTimeout, "heartbeat timeout")
				continue
			}

			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(pingFrame{
				Type:       framePing,
				Timestamp:  time.Now(),
				FramesIn:   c.framesIn.Load(),
				FramesOut:  c.framesOut.Load(),
				QueueDepth: len(c.send),
			}); err != nil {
				c.Close(CloseInternalError, "ping write failed")
				continue
			}
			c.framesOut.Add(1)
			c.metrics.FramesOut.Inc()
		}
	}
}

// pongOverdue bounds the cost of a half-open socket: a client that has
// not answered within heartbeatMisses intervals of its last pong is gone.
func (c *Conn) pongOverdue() bool {
	last := time.Unix(0, c.lastPong.Load())
	return time.Since(last) > time.Duration(heartbeatMisses)*c.heartbeatInterval
}

// teardown runs exactly once, from the write pump, after Close cancelled
// the context. It is the Closing to Closed transition.
func (c *Conn) teardown() {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(c.closeCode, c.closeReason))
	_ = c.ws.Close()
	close(c.doneCh)

	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "connection closed",
		logger.ConnectionID(c.id),
		logger.UserID(c.userID),
		slog.Int("close_code", c.closeCode),
		slog.String("reason", c.closeReason),
		logger.Duration("session_duration", time.Since(c.startedAt)),
	)
}

// handleMessage parses and dispatches one inbound frame. Protocol errors
// are soft: the client gets an error frame and the connection stays open.
func (c *Conn) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.enqueue(newErrorFrame(errCodeValidation, "malformed message"))
		return
	}

	// Pongs bypass the rate limiter; throttling liveness replies would
	// turn an overactive client into a false heartbeat timeout.
	if msg.Type == "pong" {
		c.lastPong.Store(time.Now().UnixNano())
		return
	}

	if c.limiter != nil {
		result, err := c.limiter.Allow(c.ctx, c.id)
		if err != nil {
			// Fail open: a broken limiter store should not make the
			// whole socket unusable.
			c.logger.LogAttrs(c.ctx, slog.LevelWarn, "rate limiter unavailable",
				logger.ConnectionID(c.id),
				logger.Error(err),
			)
		} else if !result.Allowed() {
			c.metrics.RateLimitRejections.Inc()
			c.enqueue(newErrorFrame(errCodeRateLimit, "rate limit exceeded, message dropped"))
			return
		}
	}

	switch {
	case msg.Type == "subscription":
		c.handleSubscription(msg)
	case msg.Action == "mark_read":
		c.handleMarkRead(msg)
	case msg.Action == "mark_all_read":
		c.handleMarkAllRead()
	case msg.Action == "get_unread_count":
		c.sendUnreadCount()
	case msg.Action == "get_recent_notifications":
		c.handleGetRecent(msg)
	case msg.Action == "client_close":
		c.Close(CloseNormal, "client requested close")
	default:
		c.enqueue(newErrorFrame(errCodeUnknownAction, "unknown message"))
	}
}

// handleSubscription mutates the live set and persists the toggle
// best-effort. The in-memory set is authoritative for this session: a
// persistence failure is logged and the live update stands.
func (c *Conn) handleSubscription(msg clientMessage) {
	typ := notifications.Type(msg.NotificationType)
	if !typ.Valid() {
		c.enqueue(newErrorFrame(errCodeValidation, "unknown notification type"))
		return
	}

	var subscribe bool
	switch msg.Action {
	case "subscribe":
		subscribe = true
	case "unsubscribe":
		subscribe = false
	default:
		c.enqueue(newErrorFrame(errCodeValidation, "subscription action must be subscribe or unsubscribe"))
		return
	}

	c.subsMu.Lock()
	if subscribe {
		c.subs[typ] = struct{}{}
	} else {
		delete(c.subs, typ)
	}
	c.subsMu.Unlock()

	c.persistToggle(typ, subscribe)

	c.enqueue(subscriptionUpdateFrame{
		Type:             frameSubscriptionUpdate,
		NotificationType: typ,
		Subscribed:       subscribe,
		Subscriptions:    c.subscriptions(),
	})
}

func (c *Conn) persistToggle(typ notifications.Type, enabled bool) {
	settings, err := c.storage.GetSettings(c.ctx, c.userID)
	if err == nil {
		if settings.SetTypeEnabled(typ, enabled) {
			err = c.storage.UpdateSettings(c.ctx, settings)
		}
	}
	if err != nil {
		c.logger.LogAttrs(c.ctx, slog.LevelWarn, "failed to persist subscription toggle",
			logger.ConnectionID(c.id),
			logger.UserID(c.userID),
			logger.NotificationType(string(typ)),
			logger.Error(err),
		)
		return
	}
	if c.invalidator != nil {
		c.invalidator.InvalidateSettings(c.userID)
	}
}

func (c *Conn) handleMarkRead(msg clientMessage) {
	if msg.NotificationID == "" {
		c.enqueue(newErrorFrame(errCodeValidation, "notification_id is required"))
		return
	}
	if _, err := c.storage.MarkRead(c.ctx, c.userID, msg.NotificationID); err != nil {
		c.enqueue(newErrorFrame(errCodeInternal, "failed to mark notification read"))
		return
	}
	c.sendUnreadCount()
}

func (c *Conn) handleMarkAllRead() {
	if _, err := c.storage.MarkAllRead(c.ctx, c.userID); err != nil {
		c.enqueue(newErrorFrame(errCodeInternal, "failed to mark notifications read"))
		return
	}
	c.sendUnreadCount()
}

func (c *Conn) sendUnreadCount() {
	count, err := c.storage.CountUnread(c.ctx, c.userID)
	if err != nil {
		c.enqueue(newErrorFrame(errCodeInternal, "failed to count unread notifications"))
		return
	}
	c.enqueue(unreadCountFrame{Type: frameUnreadCountUpdate, Count: count})
}

func (c *Conn) handleGetRecent(msg clientMessage) {
	limit := msg.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	opts := notifications.ListOptions{Limit: limit}
	if msg.NotificationType != "" {
		typ := notifications.Type(msg.NotificationType)
		if !typ.Valid() {
			c.enqueue(newErrorFrame(errCodeValidation, "unknown notification type"))
			return
		}
		opts.Types = []notifications.Type{typ}
	}

	recent, err := c.storage.List(c.ctx, c.userID, opts)
	if err != nil {
		c.enqueue(newErrorFrame(errCodeInternal, "failed to load notifications"))
		return
	}
	c.enqueue(recentNotificationsFrame{Type: frameRecentNotifications, Notifications: recent})
}
