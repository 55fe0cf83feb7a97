package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlearn/notify/pkg/logger"
)

// Service is the single entry point domain code uses to emit
// notifications. It persists first, then routes; delivery problems never
// surface to the caller once the record is stored.
type Service struct {
	storage Storage
	router  *Router
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = log }
}

// NewService creates a Service over the given storage and router.
func NewService(storage Storage, router *Router, opts ...ServiceOption) *Service {
	s := &Service{
		storage: storage,
		router:  router,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAndDeliver validates, persists, and routes a new notification.
//
// Reminder-class types are suppressed before creation when the user's
// settings reject them: nobody wants a nudge kept around as unread
// history. In that case it returns (nil, nil). Every other type is
// persisted regardless of settings so it shows up in the in-app feed,
// with per-channel filtering applied at delivery time.
func (s *Service) CreateAndDeliver(ctx context.Context, userID, title, message string, typ Type, priority Priority, payload map[string]any) (*Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	if typ.IsReminder() {
		settings, err := s.router.Settings(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if !ShouldDeliver(settings, typ, priority, time.Now()) {
			s.logger.LogAttrs(ctx, slog.LevelDebug, "reminder suppressed by settings",
				logger.UserID(userID),
				logger.NotificationType(string(typ)),
			)
			return nil, nil
		}
	}

	notif := Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := s.storage.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	s.router.Deliver(ctx, notif)

	return &notif, nil
}

// Storage returns the underlying notification storage.
func (s *Service) Storage() Storage {
	return s.storage
}

// Router returns the delivery router.
func (s *Service) Router() *Router {
	return s.router
}
