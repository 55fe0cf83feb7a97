package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/pg"
)

// Store is the PostgreSQL implementation of notifications.Storage and
// notifications.DeviceStorage, backed by a pgx connection pool. Schema
// lives in migrations/ and is applied with pg.Migrate.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over an established pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, notif notifications.Notification) error {
	if notif.ID == "" {
		return fmt.Errorf("%w: notification ID is required", notifications.ErrValidation)
	}
	if notif.UserID == "" {
		return fmt.Errorf("%w: user ID is required", notifications.ErrValidation)
	}
	if !notif.Type.Valid() {
		return fmt.Errorf("%w: %q", notifications.ErrUnknownType, notif.Type)
	}
	if notif.ExpiresAt != nil && notif.ExpiresAt.Before(time.Now()) {
		return fmt.Errorf("%w: expires_at is in the past", notifications.ErrValidation)
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, priority, title, message, payload, read, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		notif.ID, notif.UserID, string(notif.Type), string(notif.Priority),
		notif.Title, notif.Message, notif.Payload, notif.Read, notif.CreatedAt, notif.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

const notificationColumns = `id, user_id, type, priority, title, message, payload, read, read_at, created_at, expires_at`

func (s *Store) Get(ctx context.Context, userID, notifID string) (*notifications.Notification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1 AND user_id = $2`,
		notifID, userID,
	)

	var n notifications.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Priority, &n.Title, &n.Message,
		&n.Payload, &n.Read, &n.ReadAt, &n.CreatedAt, &n.ExpiresAt)
	if pg.IsNotFoundError(err) {
		return nil, notifications.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}
	return &n, nil
}

func (s *Store) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	var (
		where = []string{"user_id = $1", "(expires_at IS NULL OR expires_at > now())"}
		args  = []any{userID}
	)
	if opts.OnlyUnread {
		where = append(where, "read = FALSE")
	}
	if len(opts.Types) > 0 {
		types := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		where = append(where, fmt.Sprintf("type = ANY($%d)", len(args)))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	result := []notifications.Notification{}
	for rows.Next() {
		var n notifications.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Priority, &n.Title, &n.Message,
			&n.Payload, &n.Read, &n.ReadAt, &n.CreatedAt, &n.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, userID, notifID string) (bool, error) {
	// read_at keeps the first read time; a second mark changes nothing.
	ct, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, now())
		WHERE id = $1 AND user_id = $2`,
		notifID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int, error) {
	ct, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE, read_at = now()
		WHERE user_id = $1 AND read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM notifications
		WHERE user_id = $1 AND read = FALSE AND (expires_at IS NULL OR expires_at > now())`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

const settingsColumns = `user_id, email_enabled, push_enabled, socket_enabled,
	lesson_reminders, flashcard_reminders, achievement_notifications, streak_notifications,
	system_notifications, calendar_events, calendar_reminders, calendar_digest,
	quiet_start, quiet_end, updated_at`

func (s *Store) GetSettings(ctx context.Context, userID string) (notifications.Settings, error) {
	if userID == "" {
		return notifications.Settings{}, fmt.Errorf("%w: user ID is required", notifications.ErrValidation)
	}

	// ON CONFLICT DO NOTHING makes concurrent first access safe: one
	// insert wins and every caller reads the same row.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_settings (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return notifications.Settings{}, fmt.Errorf("failed to ensure settings row: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM notification_settings WHERE user_id = $1`, userID)

	var (
		st                   notifications.Settings
		quietStart, quietEnd *string
	)
	err = row.Scan(&st.UserID, &st.EmailEnabled, &st.PushEnabled, &st.SocketEnabled,
		&st.LessonReminders, &st.FlashcardReminders, &st.AchievementNotifications, &st.StreakNotifications,
		&st.SystemNotifications, &st.CalendarEvents, &st.CalendarReminders, &st.CalendarDigest,
		&quietStart, &quietEnd, &st.UpdatedAt)
	if err != nil {
		return notifications.Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}
	if quietStart != nil && quietEnd != nil {
		st.QuietHours = &notifications.QuietHours{Start: *quietStart, End: *quietEnd}
	}
	return st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings notifications.Settings) error {
	if settings.UserID == "" {
		return fmt.Errorf("%w: user ID is required", notifications.ErrValidation)
	}
	var quietStart, quietEnd *string
	if settings.QuietHours != nil {
		if err := settings.QuietHours.Validate(); err != nil {
			return err
		}
		quietStart = &settings.QuietHours.Start
		quietEnd = &settings.QuietHours.End
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_settings (user_id, email_enabled, push_enabled, socket_enabled,
			lesson_reminders, flashcard_reminders, achievement_notifications, streak_notifications,
			system_notifications, calendar_events, calendar_reminders, calendar_digest,
			quiet_start, quiet_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			socket_enabled = EXCLUDED.socket_enabled,
			lesson_reminders = EXCLUDED.lesson_reminders,
			flashcard_reminders = EXCLUDED.flashcard_reminders,
			achievement_notifications = EXCLUDED.achievement_notifications,
			streak_notifications = EXCLUDED.streak_notifications,
			system_notifications = EXCLUDED.system_notifications,
			calendar_events = EXCLUDED.calendar_events,
			calendar_reminders = EXCLUDED.calendar_reminders,
			calendar_digest = EXCLUDED.calendar_digest,
			quiet_start = EXCLUDED.quiet_start,
			quiet_end = EXCLUDED.quiet_end,
			updated_at = now()`,
		settings.UserID, settings.EmailEnabled, settings.PushEnabled, settings.SocketEnabled,
		settings.LessonReminders, settings.FlashcardReminders, settings.AchievementNotifications,
		settings.StreakNotifications, settings.SystemNotifications, settings.CalendarEvents,
		settings.CalendarReminders, settings.CalendarDigest, quietStart, quietEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

func (s *Store) RegisterDevice(ctx context.Context, device notifications.Device) (notifications.Device, error) {
	if device.UserID == "" {
		return notifications.Device{}, fmt.Errorf("%w: user ID is required", notifications.ErrValidation)
	}
	if device.Token == "" {
		return notifications.Device{}, fmt.Errorf("%w: device token is required", notifications.ErrValidation)
	}
	if !device.DeviceType.Valid() {
		return notifications.Device{}, fmt.Errorf("%w: unknown device type %q", notifications.ErrValidation, device.DeviceType)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return notifications.Device{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing notifications.Device
	err = tx.QueryRow(ctx, `
		SELECT id, user_id FROM devices WHERE token = $1 AND is_active FOR UPDATE`,
		device.Token,
	).Scan(&existing.ID, &existing.UserID)

	switch {
	case err == nil && existing.UserID == device.UserID:
		// Idempotent re-registration: refresh metadata, keep identity.
		row := tx.QueryRow(ctx, `
			UPDATE devices SET device_type = $2, device_name = $3
			WHERE id = $1
			RETURNING id, user_id, token, device_type, device_name, is_active, created_at`,
			existing.ID, string(device.DeviceType), device.DeviceName,
		)
		var d notifications.Device
		if err := row.Scan(&d.ID, &d.UserID, &d.Token, &d.DeviceType, &d.DeviceName, &d.IsActive, &d.CreatedAt); err != nil {
			return notifications.Device{}, fmt.Errorf("failed to refresh device: %w", err)
		}
		return d, tx.Commit(ctx)

	case err == nil:
		// Token moved to a different user: old owner's row stays, inactive.
		if _, err := tx.Exec(ctx, `UPDATE devices SET is_active = FALSE WHERE id = $1`, existing.ID); err != nil {
			return notifications.Device{}, fmt.Errorf("failed to deactivate previous owner: %w", err)
		}

	case !pg.IsNotFoundError(err):
		return notifications.Device{}, fmt.Errorf("failed to look up device token: %w", err)
	}

	device.ID = uuid.New().String()
	row := tx.QueryRow(ctx, `
		INSERT INTO devices (id, user_id, token, device_type, device_name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now())
		RETURNING id, user_id, token, device_type, device_name, is_active, created_at`,
		device.ID, device.UserID, device.Token, string(device.DeviceType), device.DeviceName,
	)
	var d notifications.Device
	if err := row.Scan(&d.ID, &d.UserID, &d.Token, &d.DeviceType, &d.DeviceName, &d.IsActive, &d.CreatedAt); err != nil {
		return notifications.Device{}, fmt.Errorf("failed to insert device: %w", err)
	}
	return d, tx.Commit(ctx)
}

func (s *Store) DeactivateDevice(ctx context.Context, deviceID string) error {
	ct, err := s.pool.Exec(ctx, `UPDATE devices SET is_active = FALSE WHERE id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return notifications.ErrDeviceNotFound
	}
	return nil
}

func (s *Store) DeactivateDeviceByToken(ctx context.Context, userID, token string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE devices SET is_active = FALSE WHERE user_id = $1 AND token = $2 AND is_active`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return notifications.ErrDeviceNotFound
	}
	return nil
}

func (s *Store) ActiveDevices(ctx context.Context, userID string) ([]notifications.Device, error) {
	return s.queryDevices(ctx, `
		SELECT id, user_id, token, device_type, device_name, is_active, created_at
		FROM devices WHERE user_id = $1 AND is_active ORDER BY created_at`, userID)
}

func (s *Store) ListDevices(ctx context.Context, userID string) ([]notifications.Device, error) {
	return s.queryDevices(ctx, `
		SELECT id, user_id, token, device_type, device_name, is_active, created_at
		FROM devices WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Store) queryDevices(ctx context.Context, query, userID string) ([]notifications.Device, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := []notifications.Device{}
	for rows.Next() {
		var d notifications.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.DeviceType, &d.DeviceName, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
