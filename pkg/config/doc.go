// Package config loads application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 behind a
// small generic API: declare a struct with `env` tags and call Load (or
// MustLoad when the configuration is required for startup).
//
//	type ServerConfig struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
//
// The default .env file is loaded at most once per process; a missing file is
// not an error. Sentinel errors can be compared with errors.Is:
//
//   - ErrParsingConfig - env vars could not be parsed into the struct.
//   - ErrNilPointer    - nil pointer passed to Load/MustLoad.
package config
