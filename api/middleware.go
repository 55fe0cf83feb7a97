package api

import (
	"context"
	"net/http"

	"github.com/lumenlearn/notify/realtime"
)

type contextKey struct{ name string }

var userIDKey = contextKey{"user_id"}

// requireAuth authenticates the request and stores the user ID in the
// context. The WebSocket route does its own authentication so the close
// code can travel over the upgraded socket; this middleware covers the
// plain REST routes.
func requireAuth(auth realtime.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.Authenticate(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// userIDFromContext returns the authenticated user set by requireAuth.
func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
