package notifications_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/notifications"
)

func newNotification(userID string, typ notifications.Type) notifications.Notification {
	return notifications.Notification{
		ID:       uuid.New().String(),
		UserID:   userID,
		Type:     typ,
		Priority: notifications.PriorityMedium,
		Title:    "title",
		Message:  "message",
	}
}

func TestMemoryStorage_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid notification", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()
		require.NoError(t, s.Create(ctx, newNotification("user-1", notifications.TypeInfo)))
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()
		n := newNotification("user-1", notifications.TypeInfo)
		n.ID = ""
		assert.ErrorIs(t, s.Create(ctx, n), notifications.ErrValidation)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()
		n := newNotification("user-1", notifications.Type("bogus"))
		assert.ErrorIs(t, s.Create(ctx, n), notifications.ErrUnknownType)
	})

	t.Run("expiry in the past", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()
		n := newNotification("user-1", notifications.TypeInfo)
		past := time.Now().Add(-time.Minute)
		n.ExpiresAt = &past
		assert.ErrorIs(t, s.Create(ctx, n), notifications.ErrValidation)
	})
}

func TestMemoryStorage_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()

	var ids []string
	for i := range 5 {
		n := newNotification("user-1", notifications.TypeInfo)
		n.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if i == 4 {
			n.Type = notifications.TypeAchievement
		}
		require.NoError(t, s.Create(ctx, n))
		ids = append(ids, n.ID)
	}
	// Another user's notification must never leak into the list.
	require.NoError(t, s.Create(ctx, newNotification("user-2", notifications.TypeInfo)))

	t.Run("most recent first", func(t *testing.T) {
		t.Parallel()
		got, err := s.List(ctx, "user-1", notifications.ListOptions{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, ids[4], got[0].ID)
		assert.Equal(t, ids[0], got[4].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		t.Parallel()
		got, err := s.List(ctx, "user-1", notifications.ListOptions{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, ids[3], got[0].ID)
		assert.Equal(t, ids[2], got[1].ID)
	})

	t.Run("type filter", func(t *testing.T) {
		t.Parallel()
		got, err := s.List(ctx, "user-1", notifications.ListOptions{
			Types: []notifications.Type{notifications.TypeAchievement},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ids[4], got[0].ID)
	})

	t.Run("unknown user returns empty", func(t *testing.T) {
		t.Parallel()
		got, err := s.List(ctx, "nobody", notifications.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryStorage_MarkRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()

	n := newNotification("user-1", notifications.TypeInfo)
	require.NoError(t, s.Create(ctx, n))

	ok, err := s.MarkRead(ctx, "user-1", n.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "user-1", n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	// Idempotent second call.
	ok, err = s.MarkRead(ctx, "user-1", n.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Missing or foreign ids report false without an error.
	ok, err = s.MarkRead(ctx, "user-1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MarkRead(ctx, "user-2", n.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorage_MarkAllRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()

	for range 3 {
		require.NoError(t, s.Create(ctx, newNotification("user-1", notifications.TypeInfo)))
	}

	changed, err := s.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	count, err := s.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	changed, err = s.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMemoryStorage_CountUnread_SkipsExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()

	require.NoError(t, s.Create(ctx, newNotification("user-1", notifications.TypeInfo)))

	expiring := newNotification("user-1", notifications.TypeInfo)
	soon := time.Now().Add(30 * time.Millisecond)
	expiring.ExpiresAt = &soon
	require.NoError(t, s.Create(ctx, expiring))

	count, err := s.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	time.Sleep(50 * time.Millisecond)

	count, err = s.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.List(ctx, "user-1", notifications.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStorage_GetSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lazy defaults", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		settings, err := s.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", settings.UserID)
		assert.True(t, settings.PushEnabled)

		settings.PushEnabled = false
		require.NoError(t, s.UpdateSettings(ctx, settings))

		again, err := s.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, again.PushEnabled, "second access must not recreate defaults")
	})

	t.Run("concurrent first access", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				settings, err := s.GetSettings(ctx, "user-1")
				assert.NoError(t, err)
				assert.Equal(t, "user-1", settings.UserID)
			}()
		}
		wg.Wait()
	})

	t.Run("invalid quiet hours rejected", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()
		settings := notifications.DefaultSettings("user-1")
		settings.QuietHours = &notifications.QuietHours{Start: "nope", End: "08:00"}
		assert.ErrorIs(t, s.UpdateSettings(ctx, settings), notifications.ErrValidation)
	})
}

func TestMemoryStorage_Devices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("register and list", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		d, err := s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-1", Token: "tok-1", DeviceType: notifications.DeviceWeb,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, d.ID)
		assert.True(t, d.IsActive)

		active, err := s.ActiveDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("re-registration is idempotent", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		first, err := s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-1", Token: "tok-1", DeviceType: notifications.DeviceWeb,
		})
		require.NoError(t, err)

		second, err := s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-1", Token: "tok-1", DeviceType: notifications.DeviceWeb, DeviceName: "laptop",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "laptop", second.DeviceName)

		all, err := s.ListDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("token moving to another user deactivates old owner", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		_, err := s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-1", Token: "tok-1", DeviceType: notifications.DeviceWeb,
		})
		require.NoError(t, err)

		_, err = s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-2", Token: "tok-1", DeviceType: notifications.DeviceWeb,
		})
		require.NoError(t, err)

		oldOwner, err := s.ListDevices(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, oldOwner, 1, "old owner's row is kept")
		assert.False(t, oldOwner[0].IsActive)

		active, err := s.ActiveDevices(ctx, "user-2")
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("deactivate keeps the row", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		d, err := s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-1", Token: "tok-1", DeviceType: notifications.DeviceIOS,
		})
		require.NoError(t, err)
		require.NoError(t, s.DeactivateDevice(ctx, d.ID))

		active, err := s.ActiveDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := s.ListDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("deactivate by token scoped to user", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()

		_, err := s.RegisterDevice(ctx, notifications.Device{
			UserID: "user-1", Token: "tok-1", DeviceType: notifications.DeviceAndroid,
		})
		require.NoError(t, err)

		assert.ErrorIs(t, s.DeactivateDeviceByToken(ctx, "user-2", "tok-1"), notifications.ErrDeviceNotFound)
		require.NoError(t, s.DeactivateDeviceByToken(ctx, "user-1", "tok-1"))

		active, err := s.ActiveDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}
