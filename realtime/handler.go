package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/logger"
	"github.com/lumenlearn/notify/pkg/ratelimiter"
)

// Handler upgrades HTTP requests to WebSocket sessions and walks each
// connection through its lifecycle: authenticate, register with the hub,
// send the initial state, then hand off to the per-connection pumps.
type Handler struct {
	hub     *Hub
	storage notifications.Storage
	auth    Authenticator

	invalidator       SettingsInvalidator
	limiter           *ratelimiter.Bucket
	logger            *slog.Logger
	metrics           *Metrics
	heartbeatInterval time.Duration
	upgrader          websocket.Upgrader
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger used by the handler and every
// connection it creates.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = log }
}

// WithHandlerMetrics attaches metrics.
func WithHandlerMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithHeartbeatInterval overrides the ping cadence. Panics if d is not
// positive. The timeout is always three missed intervals.
func WithHeartbeatInterval(d time.Duration) HandlerOption {
	if d <= 0 {
		panic("realtime: heartbeat interval must be positive")
	}
	return func(h *Handler) { h.heartbeatInterval = d }
}

// WithRateLimiter throttles inbound messages per connection. Overflow
// gets a soft error frame, never a disconnect.
func WithRateLimiter(b *ratelimiter.Bucket) HandlerOption {
	return func(h *Handler) { h.limiter = b }
}

// WithSettingsInvalidator wires the router's settings cache so live
// subscription changes take effect on the next delivery.
func WithSettingsInvalidator(inv SettingsInvalidator) HandlerOption {
	return func(h *Handler) { h.invalidator = inv }
}

// WithCheckOrigin overrides the upgrader's origin policy.
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// NewHandler creates the WebSocket endpoint handler.
func NewHandler(hub *Hub, storage notifications.Storage, auth Authenticator, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:     hub,
		storage: storage,
		auth:    auth,
		logger:  slog.Default(),
		metrics: nopMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		heartbeatInterval: defaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Credentials ride on the request, so they are checked before the
	// upgrade; the upgrade still happens on failure because the distinct
	// close code has to travel over the socket.
	userID, authErr := h.auth.Authenticate(r)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	if authErr != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelInfo, "websocket auth failed",
			logger.Error(authErr),
		)
		h.reject(ws, CloseAuthFailure, "authentication failed")
		return
	}

	settings, err := h.storage.GetSettings(r.Context(), userID)
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelError, "failed to load settings for connection",
			logger.UserID(userID),
			logger.Error(err),
		)
		h.reject(ws, CloseInternalError, "internal error")
		return
	}

	c := h.newConn(ws, userID, settings)

	if err := h.hub.Register(c); err != nil {
		code, reason := CloseInternalError, "internal error"
		switch err {
		case ErrConnectionLimit:
			code, reason = CloseConnectionLimit, "connection limit exceeded"
		case ErrHubClosed:
			code, reason = CloseNormal, "server shutting down"
		}
		h.reject(ws, code, reason)
		return
	}

	// Initial state goes out before the pumps start draining the queue,
	// so connection_established is always the first frame the peer sees.
	if err := h.sendHandshake(r.Context(), c); err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to send handshake",
			logger.ConnectionID(c.id),
			logger.UserID(userID),
			logger.Error(err),
		)
		c.Close(CloseInternalError, "handshake failed")
	}

	c.run()
}

// newConn builds a Conn in the Authenticated state with its live
// subscription set seeded from the user's settings.
func (h *Handler) newConn(ws *websocket.Conn, userID string, settings notifications.Settings) *Conn {
	ctx, cancel := context.WithCancel(context.Background())

	subs := make(map[notifications.Type]struct{})
	for _, t := range settings.EnabledTypes() {
		subs[t] = struct{}{}
	}

	c := &Conn{
		id:                uuid.New().String(),
		userID:            userID,
		ws:                ws,
		hub:               h.hub,
		storage:           h.storage,
		invalidator:       h.invalidator,
		limiter:           h.limiter,
		logger:            h.logger,
		metrics:           h.metrics,
		heartbeatInterval: h.heartbeatInterval,
		send:              make(chan any, sendQueueSize),
		ctx:               ctx,
		cancel:            cancel,
		doneCh:            make(chan struct{}),
		subs:              subs,
		startedAt:         time.Now(),
	}
	c.lastPong.Store(time.Now().UnixNano())
	return c
}

func (h *Handler) sendHandshake(ctx context.Context, c *Conn) error {
	count, err := h.storage.CountUnread(ctx, c.userID)
	if err != nil {
		return err
	}
	recent, err := h.storage.List(ctx, c.userID, notifications.ListOptions{Limit: defaultRecentLimit})
	if err != nil {
		return err
	}

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(connectionEstablishedFrame{
		Type:                frameConnectionEstablished,
		ConnectionID:        c.id,
		UnreadCount:         count,
		RecentNotifications: recent,
		SupportedTypes:      notifications.AllTypes(),
		Subscriptions:       c.subscriptions(),
	})
}

// reject closes a socket that never made it into the hub.
func (h *Handler) reject(ws *websocket.Conn, code int, reason string) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = ws.Close()
}
