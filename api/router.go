package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/realtime"
)

// RouterOptions configures the notification API router. WebSocket and
// Devices are required; Logger falls back to slog.Default.
type RouterOptions struct {
	// WebSocket handles the upgrade at GET /ws. It authenticates the
	// request itself.
	WebSocket http.Handler

	// Devices backs the push-subscription endpoints.
	Devices notifications.DeviceStorage

	// Auth guards the REST routes.
	Auth realtime.Authenticator

	// Notifier and InternalToken enable the service-to-service creation
	// endpoint. When either is missing the route is not mounted.
	Notifier      Notifier
	InternalToken string

	Logger *slog.Logger
}

// Router mounts the notification API:
//
//	GET    /ws                       WebSocket upgrade
//	POST   /push/subscriptions       register a push endpoint
//	GET    /push/subscriptions       list the caller's devices
//	DELETE /push/subscriptions       deactivate a push endpoint
//	POST   /internal/notifications   create + route (service token)
func Router(opts RouterOptions) chi.Router {
	if opts.WebSocket == nil {
		panic("api: WebSocket handler is required")
	}
	if opts.Devices == nil {
		panic("api: device storage is required")
	}
	if opts.Auth == nil {
		panic("api: authenticator is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	svc := &subscriptionService{devices: opts.Devices, logger: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", opts.WebSocket.ServeHTTP)

	r.Route("/push/subscriptions", func(r chi.Router) {
		r.Use(requireAuth(opts.Auth))
		r.Post("/", svc.register)
		r.Get("/", svc.list)
		r.Delete("/", svc.unregister)
	})

	if opts.Notifier != nil && opts.InternalToken != "" {
		nsvc := &notificationService{notifier: opts.Notifier, logger: log}
		r.Route("/internal/notifications", func(r chi.Router) {
			r.Use(requireServiceToken(opts.InternalToken))
			r.Post("/", nsvc.create)
		})
	}

	return r
}
