// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, and lifecycle hooks.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal is
// received, then shuts the server down with a configurable deadline. Stop
// hooks run after shutdown, which gives callers a place to tear down
// long-lived resources such as WebSocket hubs.
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStopHook(func(l *slog.Logger) { hub.Shutdown(context.Background()) }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server stopped", logger.Error(err))
//	}
//
// Listen errors are wrapped with ErrStart, shutdown errors with ErrShutdown.
package httpserver
