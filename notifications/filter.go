package notifications

import "time"

// ShouldDeliver decides whether a notification of the given type and
// priority passes the user's preferences at the given instant. It is a
// pure function; the same check seeds a connection's live subscription
// set at connect time and gates push/email at delivery time.
//
// Order matters: a disabled type toggle suppresses regardless of
// priority, while quiet hours only demote non-high priorities.
func ShouldDeliver(s Settings, t Type, p Priority, now time.Time) bool {
	if !s.TypeEnabled(t) {
		return false
	}
	if s.QuietHours != nil && s.QuietHours.Contains(now) && p != PriorityHigh {
		return false
	}
	return true
}
