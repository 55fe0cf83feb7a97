package main

import "time"

// appConfig is the top-level switchboard: it decides which backends get
// wired, and each selected backend loads its own package config.
type appConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"notifyd"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Storage selects the notification store: "memory" or "postgres".
	Storage string `env:"STORAGE" envDefault:"memory"`

	// RateLimitStore selects the WebSocket rate limiter backing store:
	// "memory" or "redis". Redis is for multi-instance deployments where
	// a reconnecting client may land on another instance.
	RateLimitStore     string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RateLimitPerMinute int    `env:"WS_RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// JWTSigningKey verifies WebSocket bearer tokens minted by the
	// platform's auth service.
	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	// InternalAPIToken guards the service-to-service creation endpoint.
	// Empty disables the endpoint.
	InternalAPIToken string `env:"INTERNAL_API_TOKEN"`

	// PushEnabled wires the Web Push channel; requires VAPID_* vars.
	PushEnabled bool `env:"PUSH_ENABLED" envDefault:"false"`

	// EmailEnabled wires the email channel. In development emails are
	// written to EmailDevDir; otherwise Postmark credentials are required.
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	EmailDevDir  string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`

	// EmailLookupURL resolves user IDs to addresses, an endpoint on the
	// platform's account service: GET {url}/{userID} -> {"email": "..."}.
	EmailLookupURL     string        `env:"EMAIL_LOOKUP_URL"`
	EmailLookupTimeout time.Duration `env:"EMAIL_LOOKUP_TIMEOUT" envDefault:"5s"`
}

func (c appConfig) development() bool {
	return c.Environment == "development"
}
