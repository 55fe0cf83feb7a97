package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/notifications"
)

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := notifications.DefaultSettings("user-1")
	assert.Equal(t, "user-1", s.UserID)
	assert.True(t, s.EmailEnabled)
	assert.True(t, s.PushEnabled)
	assert.True(t, s.SocketEnabled)
	assert.Nil(t, s.QuietHours)

	for _, typ := range notifications.AllTypes() {
		assert.True(t, s.TypeEnabled(typ), "default settings must enable %q", typ)
	}
}

func TestSettings_SetTypeEnabled(t *testing.T) {
	t.Parallel()

	s := notifications.DefaultSettings("user-1")

	require.True(t, s.SetTypeEnabled(notifications.TypeAchievement, false))
	assert.False(t, s.TypeEnabled(notifications.TypeAchievement))
	assert.True(t, s.TypeEnabled(notifications.TypeStreak))

	require.True(t, s.SetTypeEnabled(notifications.TypeAchievement, true))
	assert.True(t, s.TypeEnabled(notifications.TypeAchievement))

	// Types without a toggle cannot be flipped and stay enabled.
	assert.False(t, s.SetTypeEnabled(notifications.TypeInfo, false))
	assert.True(t, s.TypeEnabled(notifications.TypeInfo))
}

func TestSettings_EnabledTypes(t *testing.T) {
	t.Parallel()

	s := notifications.DefaultSettings("user-1")
	assert.Len(t, s.EnabledTypes(), len(notifications.AllTypes()))

	s.SetTypeEnabled(notifications.TypeFlashcard, false)
	s.SetTypeEnabled(notifications.TypeCalendarDigest, false)
	enabled := s.EnabledTypes()
	assert.Len(t, enabled, len(notifications.AllTypes())-2)
	assert.NotContains(t, enabled, notifications.TypeFlashcard)
	assert.NotContains(t, enabled, notifications.TypeCalendarDigest)
}

func TestQuietHours_Contains(t *testing.T) {
	t.Parallel()

	at := func(clock string) time.Time {
		parsed, err := time.Parse("15:04", clock)
		require.NoError(t, err)
		return time.Date(2025, 6, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.Local)
	}

	tests := []struct {
		name   string
		window notifications.QuietHours
		now    string
		inside bool
	}{
		{name: "wrap window late evening", window: notifications.QuietHours{Start: "22:00", End: "08:00"}, now: "23:30", inside: true},
		{name: "wrap window early morning", window: notifications.QuietHours{Start: "22:00", End: "08:00"}, now: "05:00", inside: true},
		{name: "wrap window midday", window: notifications.QuietHours{Start: "22:00", End: "08:00"}, now: "12:00", inside: false},
		{name: "wrap window at start", window: notifications.QuietHours{Start: "22:00", End: "08:00"}, now: "22:00", inside: true},
		{name: "wrap window at end", window: notifications.QuietHours{Start: "22:00", End: "08:00"}, now: "08:00", inside: true},
		{name: "plain window inside", window: notifications.QuietHours{Start: "13:00", End: "15:00"}, now: "14:00", inside: true},
		{name: "plain window before", window: notifications.QuietHours{Start: "13:00", End: "15:00"}, now: "12:59", inside: false},
		{name: "plain window after", window: notifications.QuietHours{Start: "13:00", End: "15:00"}, now: "15:01", inside: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.inside, tt.window.Contains(at(tt.now)))
		})
	}
}

func TestQuietHours_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, notifications.QuietHours{Start: "22:00", End: "08:00"}.Validate())

	err := notifications.QuietHours{Start: "25:00", End: "08:00"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, notifications.ErrValidation)

	err = notifications.QuietHours{Start: "22:00", End: "bogus"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, notifications.ErrValidation)
}
