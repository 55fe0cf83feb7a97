// Package notifications is the domain core of the real-time notification
// subsystem: the notification model and its closed type set, per-user
// delivery settings with quiet hours, pluggable persistence, and the
// router that fans a stored notification out across channels.
//
// # Architecture
//
//   - Storage / DeviceStorage: persistence contracts, with an in-memory
//     implementation here and a PostgreSQL one in notifications/pgstore.
//   - ShouldDeliver: the pure preference check shared by connect-time
//     subscription seeding and delivery-time channel gating.
//   - Router: channel fan-out. Socket broadcast is always attempted; push
//     and email are gated by settings, and email additionally by high
//     priority. Channel failures are logged, never propagated.
//   - Service: the single entry point for emitting notifications.
//     CreateAndDeliver persists first, then routes, so a socket delivery
//     failure can never lose a record.
//
// # Basic Usage
//
//	storage := notifications.NewMemoryStorage()
//	router := notifications.NewRouter(storage,
//	    notifications.WithBroadcaster(hub),
//	    notifications.WithPushSender(pushSender, storage),
//	)
//	svc := notifications.NewService(storage, router)
//
//	notif, err := svc.CreateAndDeliver(ctx, userID,
//	    "Achievement unlocked", "You finished the course!",
//	    notifications.TypeAchievement, notifications.PriorityMedium, nil)
//
// The transport layer lives in the realtime package; it implements
// Broadcaster and consumes Storage for the protocol actions.
package notifications
