// Package realtime is the WebSocket transport of the notification
// subsystem: a Hub that tracks live connections per user and fans
// broadcasts out to them, and a Conn per socket that owns inbound
// parsing, the outbound queue, heartbeats, rate limiting, and the live
// subscription set.
//
// # Lifecycle
//
// A connection moves Connecting -> Authenticated -> Active -> Closing ->
// Closed. Authentication happens on the HTTP request; registration with
// the Hub and the connection_established frame complete activation. All
// per-connection tasks observe one context, so teardown is a single
// cancel and runs exactly once regardless of which path triggered it.
//
// # Protocol
//
// Frames are JSON. The server pings every heartbeat interval and closes
// with code 4000 after three silent intervals; auth failures close with
// 4001 and the per-user connection cap with 4003. Protocol errors are
// soft: the client receives an error frame and the session continues.
//
// # Wiring
//
//	hub := realtime.NewHub()
//	handler := realtime.NewHandler(hub, storage, authenticator,
//	    realtime.WithRateLimiter(bucket),
//	    realtime.WithSettingsInvalidator(router),
//	)
//	mux.Handle("/ws/notifications", handler)
//
// The hub satisfies notifications.Broadcaster, so it plugs straight into
// the delivery router.
package realtime
