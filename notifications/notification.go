package notifications

import (
	"time"
)

// Type tags a notification. The set is closed; extend it only by adding
// constants here and a matching settings toggle where one applies.
type Type string

const (
	TypeInfo             Type = "info"
	TypeSuccess          Type = "success"
	TypeWarning          Type = "warning"
	TypeError            Type = "error"
	TypeLessonReminder   Type = "lesson_reminder"
	TypeFlashcard        Type = "flashcard"
	TypeStreak           Type = "streak"
	TypeAchievement      Type = "achievement"
	TypeSystem           Type = "system"
	TypeProgress         Type = "progress"
	TypeTerms            Type = "terms"
	TypeCalendarEvent    Type = "calendar_event"
	TypeCalendarReminder Type = "calendar_reminder"
	TypeCalendarDigest   Type = "calendar_digest"
)

// AllTypes returns every supported notification type, in a stable order.
func AllTypes() []Type {
	return []Type{
		TypeInfo, TypeSuccess, TypeWarning, TypeError,
		TypeLessonReminder, TypeFlashcard, TypeStreak, TypeAchievement,
		TypeSystem, TypeProgress, TypeTerms,
		TypeCalendarEvent, TypeCalendarReminder, TypeCalendarDigest,
	}
}

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError,
		TypeLessonReminder, TypeFlashcard, TypeStreak, TypeAchievement,
		TypeSystem, TypeProgress, TypeTerms,
		TypeCalendarEvent, TypeCalendarReminder, TypeCalendarDigest:
		return true
	}
	return false
}

// IsReminder reports whether t is a proactive nudge rather than a record of
// something that happened. Reminder types are suppressed before creation when
// the user has opted out; everything else is persisted for in-app history and
// filtered per channel at delivery time.
func (t Type) IsReminder() bool {
	switch t {
	case TypeLessonReminder, TypeFlashcard,
		TypeCalendarEvent, TypeCalendarReminder, TypeCalendarDigest:
		return true
	}
	return false
}

// Priority represents the notification priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Notification is the core domain model. Records are immutable after
// creation except for the read flag, which only ever flips to true.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*n.ExpiresAt)
}

// MarkAsRead marks the notification as read with the current timestamp.
// It is a no-op on an already-read notification so ReadAt stays at the
// first read time.
func (n *Notification) MarkAsRead() {
	if n.Read {
		return
	}
	n.Read = true
	now := time.Now()
	n.ReadAt = &now
}
