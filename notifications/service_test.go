package notifications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/notifications"
)

func newService(storage *notifications.MemoryStorage, hub *recordingBroadcaster) *notifications.Service {
	router := notifications.NewRouter(storage, notifications.WithBroadcaster(hub))
	return notifications.NewService(storage, router)
}

func TestService_CreateAndDeliver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists and broadcasts", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		hub := &recordingBroadcaster{}
		svc := newService(storage, hub)

		notif, err := svc.CreateAndDeliver(ctx, "user-1", "Badge", "You earned it",
			notifications.TypeAchievement, notifications.PriorityMedium, nil)
		require.NoError(t, err)
		require.NotNil(t, notif)
		assert.NotEmpty(t, notif.ID)

		stored, err := storage.Get(ctx, "user-1", notif.ID)
		require.NoError(t, err)
		assert.Equal(t, "Badge", stored.Title)
		assert.Equal(t, 1, hub.count)
	})

	t.Run("defaults priority to medium", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		svc := newService(storage, &recordingBroadcaster{})

		notif, err := svc.CreateAndDeliver(ctx, "user-1", "t", "m",
			notifications.TypeInfo, "", nil)
		require.NoError(t, err)
		require.NotNil(t, notif)
		assert.Equal(t, notifications.PriorityMedium, notif.Priority)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		svc := newService(storage, &recordingBroadcaster{})

		notif, err := svc.CreateAndDeliver(ctx, "user-1", "t", "m",
			notifications.Type("bogus"), notifications.PriorityLow, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, notifications.ErrUnknownType)
		assert.Nil(t, notif)
	})

	t.Run("suppressed reminder is never created", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		hub := &recordingBroadcaster{}
		svc := newService(storage, hub)

		settings, err := storage.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		settings.LessonReminders = false
		require.NoError(t, storage.UpdateSettings(ctx, settings))

		notif, err := svc.CreateAndDeliver(ctx, "user-1", "Time to study", "...",
			notifications.TypeLessonReminder, notifications.PriorityMedium, nil)
		require.NoError(t, err)
		assert.Nil(t, notif)

		count, err := storage.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Zero(t, hub.count)
	})

	t.Run("disabled content type is still persisted", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		hub := &recordingBroadcaster{}
		svc := newService(storage, hub)

		settings, err := storage.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		settings.AchievementNotifications = false
		require.NoError(t, storage.UpdateSettings(ctx, settings))

		notif, err := svc.CreateAndDeliver(ctx, "user-1", "Badge", "...",
			notifications.TypeAchievement, notifications.PriorityMedium, nil)
		require.NoError(t, err)
		require.NotNil(t, notif)

		// Unread count reflects the record even though channels filter it.
		count, err := storage.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, hub.count, "hub layer still sees the broadcast")
	})
}
