package realtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/notifications"
)

// bareConn builds a Conn without a socket, enough for registry tests.
func bareConn(hub *Hub, userID string) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		id:      userID + "-conn",
		userID:  userID,
		hub:     hub,
		logger:  slog.Default(),
		metrics: nopMetrics(),
		send:    make(chan any, sendQueueSize),
		ctx:     ctx,
		cancel:  cancel,
		doneCh:  make(chan struct{}),
		subs:    map[notifications.Type]struct{}{notifications.TypeInfo: {}},
	}
	return c
}

func TestHub_RegisterCap(t *testing.T) {
	t.Parallel()

	hub := NewHub(WithMaxConnectionsPerUser(2))

	first := bareConn(hub, "user-1")
	second := bareConn(hub, "user-1")
	third := bareConn(hub, "user-1")

	require.NoError(t, hub.Register(first))
	require.NoError(t, hub.Register(second))
	assert.ErrorIs(t, hub.Register(third), ErrConnectionLimit)

	// Existing sessions are untouched and another user still fits.
	assert.Equal(t, 2, hub.Connections("user-1"))
	require.NoError(t, hub.Register(bareConn(hub, "user-2")))
}

func TestHub_UnregisterIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := bareConn(hub, "user-1")
	require.NoError(t, hub.Register(c))

	hub.Unregister(c)
	assert.Zero(t, hub.Connections("user-1"))

	// Second call from an error path is a no-op.
	hub.Unregister(c)
	assert.Zero(t, hub.Connections("user-1"))
}

func TestHub_UnregisterFreesCapacity(t *testing.T) {
	t.Parallel()

	hub := NewHub(WithMaxConnectionsPerUser(1))
	first := bareConn(hub, "user-1")
	require.NoError(t, hub.Register(first))
	require.ErrorIs(t, hub.Register(bareConn(hub, "user-1")), ErrConnectionLimit)

	hub.Unregister(first)
	assert.NoError(t, hub.Register(bareConn(hub, "user-1")))
}

func TestHub_BroadcastQueuesPerConnection(t *testing.T) {
	t.Parallel()

	storage := notifications.NewMemoryStorage()
	hub := NewHub()

	c1 := bareConn(hub, "user-1")
	c1.storage = storage
	c2 := bareConn(hub, "user-1")
	c2.storage = storage
	other := bareConn(hub, "user-2")
	other.storage = storage

	require.NoError(t, hub.Register(c1))
	require.NoError(t, hub.Register(c2))
	require.NoError(t, hub.Register(other))

	notif := notifications.Notification{ID: "n1", UserID: "user-1", Type: notifications.TypeInfo}
	hub.Broadcast(context.Background(), notif)

	// Each of the user's connections gets the notification frame plus an
	// unread count update; the other user gets nothing.
	assert.Len(t, c1.send, 2)
	assert.Len(t, c2.send, 2)
	assert.Empty(t, other.send)
}

func TestHub_BroadcastSkipsUnsubscribedConnection(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := bareConn(hub, "user-1")
	c.storage = notifications.NewMemoryStorage()
	require.NoError(t, hub.Register(c))

	hub.Broadcast(context.Background(), notifications.Notification{
		ID: "n1", UserID: "user-1", Type: notifications.TypeAchievement,
	})
	assert.Empty(t, c.send, "connection only subscribes to info")
}

func TestHub_BroadcastNeverBlocksOnFullQueue(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := bareConn(hub, "user-1")
	c.storage = notifications.NewMemoryStorage()
	require.NoError(t, hub.Register(c))

	// Saturate the queue; no writer is draining it.
	for i := 0; i < sendQueueSize+10; i++ {
		hub.Broadcast(context.Background(), notifications.Notification{
			ID: "n", UserID: "user-1", Type: notifications.TypeInfo,
		})
	}

	// The slow connection was closed and dropped from the registry
	// instead of stalling the broadcaster.
	assert.Zero(t, hub.Connections("user-1"))
}

func TestHub_ShutdownRejectsNewConnections(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No live connections, shutdown returns immediately.
	require.NoError(t, hub.Shutdown(ctx))
	assert.ErrorIs(t, hub.Register(bareConn(hub, "user-1")), ErrHubClosed)
}
