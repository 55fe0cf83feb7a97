package notifications

import (
	"fmt"
	"time"
)

// Settings holds one user's delivery preferences. A row is created lazily
// with defaults on first access; see Storage.GetSettings.
type Settings struct {
	UserID string `json:"user_id"`

	// Channel toggles. The socket channel is conceptually always on; the
	// field exists for API symmetry and future use.
	EmailEnabled  bool `json:"email_enabled"`
	PushEnabled   bool `json:"push_enabled"`
	SocketEnabled bool `json:"socket_enabled"`

	// Per-type toggles. Types without a toggle (info, success, warning,
	// error, progress, terms) are always enabled.
	LessonReminders          bool `json:"lesson_reminders"`
	FlashcardReminders       bool `json:"flashcard_reminders"`
	AchievementNotifications bool `json:"achievement_notifications"`
	StreakNotifications      bool `json:"streak_notifications"`
	SystemNotifications      bool `json:"system_notifications"`
	CalendarEvents           bool `json:"calendar_events"`
	CalendarReminders        bool `json:"calendar_reminders"`
	CalendarDigest           bool `json:"calendar_digest"`

	QuietHours *QuietHours `json:"quiet_hours,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings created on first access: every
// toggle on, no quiet hours.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:                   userID,
		EmailEnabled:             true,
		PushEnabled:              true,
		SocketEnabled:            true,
		LessonReminders:          true,
		FlashcardReminders:       true,
		AchievementNotifications: true,
		StreakNotifications:      true,
		SystemNotifications:      true,
		CalendarEvents:           true,
		CalendarReminders:        true,
		CalendarDigest:           true,
		UpdatedAt:                time.Now(),
	}
}

// TypeEnabled reports whether the toggle for t is on. Types without a
// dedicated toggle are always enabled.
func (s Settings) TypeEnabled(t Type) bool {
	switch t {
	case TypeLessonReminder:
		return s.LessonReminders
	case TypeFlashcard:
		return s.FlashcardReminders
	case TypeAchievement:
		return s.AchievementNotifications
	case TypeStreak:
		return s.StreakNotifications
	case TypeSystem:
		return s.SystemNotifications
	case TypeCalendarEvent:
		return s.CalendarEvents
	case TypeCalendarReminder:
		return s.CalendarReminders
	case TypeCalendarDigest:
		return s.CalendarDigest
	}
	return true
}

// SetTypeEnabled flips the toggle for t. Types without a toggle are
// ignored and reported as false.
func (s *Settings) SetTypeEnabled(t Type, enabled bool) bool {
	switch t {
	case TypeLessonReminder:
		s.LessonReminders = enabled
	case TypeFlashcard:
		s.FlashcardReminders = enabled
	case TypeAchievement:
		s.AchievementNotifications = enabled
	case TypeStreak:
		s.StreakNotifications = enabled
	case TypeSystem:
		s.SystemNotifications = enabled
	case TypeCalendarEvent:
		s.CalendarEvents = enabled
	case TypeCalendarReminder:
		s.CalendarReminders = enabled
	case TypeCalendarDigest:
		s.CalendarDigest = enabled
	default:
		return false
	}
	return true
}

// EnabledTypes returns the types currently enabled for s, in the stable
// AllTypes order. Used to seed a connection's live subscription set.
func (s Settings) EnabledTypes() []Type {
	var enabled []Type
	for _, t := range AllTypes() {
		if s.TypeEnabled(t) {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

// QuietHours is a daily window during which only high priority
// notifications go through disruptive channels (push, email). Socket
// delivery is unaffected.
type QuietHours struct {
	Start string `json:"start"` // "HH:MM", 24h clock
	End   string `json:"end"`
}

// Contains reports whether now's local wall-clock time falls inside the
// window. Start > End means the window wraps past midnight, so "inside"
// is now >= Start OR now <= End.
func (q QuietHours) Contains(now time.Time) bool {
	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	if start > end {
		return minute >= start || minute <= end
	}
	return minute >= start && minute <= end
}

// Validate checks both clock values parse.
func (q QuietHours) Validate() error {
	if _, err := parseClock(q.Start); err != nil {
		return fmt.Errorf("%w: quiet hours start: %v", ErrValidation, err)
	}
	if _, err := parseClock(q.End); err != nil {
		return fmt.Errorf("%w: quiet hours end: %v", ErrValidation, err)
	}
	return nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
