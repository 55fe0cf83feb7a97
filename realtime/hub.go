package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/logger"
)

const defaultMaxConnectionsPerUser = 5

// Hub is the process-wide directory of live connections, keyed by user.
// It implements notifications.Broadcaster. The registry is the only state
// shared across connections; everything else lives inside each Conn.
//
// A Conn removes itself from the hub exactly once as part of its own
// teardown; nothing else unregisters connections.
type Hub struct {
	maxPerUser int
	logger     *slog.Logger
	metrics    *Metrics

	mu     sync.RWMutex
	conns  map[string][]*Conn
	closed bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithMaxConnectionsPerUser sets the per-user connection cap. Panics if n
// is not positive.
func WithMaxConnectionsPerUser(n int) HubOption {
	if n <= 0 {
		panic("realtime: max connections per user must be positive")
	}
	return func(h *Hub) { h.maxPerUser = n }
}

// WithHubLogger sets the logger for the Hub.
func WithHubLogger(log *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = log }
}

// WithHubMetrics attaches metrics to the Hub.
func WithHubMetrics(m *Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates an empty Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		maxPerUser: defaultMaxConnectionsPerUser,
		logger:     slog.Default(),
		metrics:    nopMetrics(),
		conns:      make(map[string][]*Conn),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a connection under its user. When the user is at the cap
// it returns ErrConnectionLimit and the caller must close the NEW
// connection; existing sessions are never evicted, so churn cannot starve
// a legitimate session.
func (h *Hub) Register(c *Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if len(h.conns[c.userID]) >= h.maxPerUser {
		return ErrConnectionLimit
	}
	h.conns[c.userID] = append(h.conns[c.userID], c)
	h.metrics.ActiveConnections.Inc()
	return nil
}

// Unregister removes a connection. No-op if it was already removed, so
// both the normal disconnect path and error paths can call it safely.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[c.userID]
	for i, existing := range conns {
		if existing == c {
			h.conns[c.userID] = append(conns[:i], conns[i+1:]...)
			if len(h.conns[c.userID]) == 0 {
				delete(h.conns, c.userID)
			}
			h.metrics.ActiveConnections.Dec()
			return
		}
	}
}

// Broadcast implements notifications.Broadcaster: it hands the
// notification to every live connection of its user. Each connection's
// outbound queue is bounded, so a slow consumer never stalls the others;
// a connection whose queue is full is closed, not waited on.
func (h *Hub) Broadcast(ctx context.Context, notif notifications.Notification) {
	h.mu.RLock()
	conns := make([]*Conn, len(h.conns[notif.UserID]))
	copy(conns, h.conns[notif.UserID])
	h.mu.RUnlock()

	for _, c := range conns {
		c.deliver(ctx, notif)
	}
}

// Connections reports how many live connections a user has.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Shutdown closes every connection with a normal close code and rejects
// further registrations. It returns once every connection has finished
// its teardown or ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	var all []*Conn
	for _, conns := range h.conns {
		all = append(all, conns...)
	}
	h.mu.Unlock()

	for _, c := range all {
		c.Close(CloseNormal, "server shutting down")
	}

	for _, c := range all {
		select {
		case <-c.done():
		case <-ctx.Done():
			h.logger.LogAttrs(ctx, slog.LevelWarn, "hub shutdown interrupted",
				logger.Error(ctx.Err()),
			)
			return ctx.Err()
		}
	}
	return nil
}
