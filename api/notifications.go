package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/logger"
)

// Notifier creates a notification and fans it out across channels.
// notifications.Service implements it.
type Notifier interface {
	CreateAndDeliver(ctx context.Context, userID, title, message string, typ notifications.Type, priority notifications.Priority, payload map[string]any) (*notifications.Notification, error)
}

// requireServiceToken guards the internal surface with a shared secret.
// Meant for service-to-service calls from the rest of the platform, not
// for end users.
func requireServiceToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "service token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type notificationService struct {
	notifier Notifier
	logger   *slog.Logger
}

type createNotificationRequest struct {
	UserID   string         `json:"user_id"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Type     string         `json:"type"`
	Priority string         `json:"priority,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// create persists and routes one notification. A nil result with no
// error means the user's settings suppressed it before creation; the
// caller still gets a 202 because from its point of view the job is done.
func (s *notificationService) create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_body", "request body must be valid JSON")
		return
	}

	notif, err := s.notifier.CreateAndDeliver(r.Context(),
		req.UserID, req.Title, req.Message,
		notifications.Type(req.Type), notifications.Priority(req.Priority),
		req.Payload,
	)
	if err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to create notification",
			logger.UserID(req.UserID),
			logger.NotificationType(req.Type),
			logger.Error(err),
		)
		writeStorageError(w, err)
		return
	}
	if notif == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusAccepted, notif)
}
