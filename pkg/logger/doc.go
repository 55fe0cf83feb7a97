// Package logger standardises structured logging across the service.
//
// It exposes a single factory, New, that creates a *slog.Logger configured by
// functional options: output format (text or json), minimum level, and static
// attributes applied to every record. WithDevelopment and WithProduction
// bundle sensible presets for the two common environments.
//
// Helper constructors in attr.go (Error, UserID, NotificationID, ...) keep
// attribute naming consistent across packages.
//
//	log := logger.New(logger.WithProduction("notifyd"))
//	log.Info("server started", logger.Component("httpserver"))
package logger
