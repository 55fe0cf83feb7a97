package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/pkg/config"
)

type testConfig struct {
	Host    string `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Port    int    `env:"TEST_CFG_PORT" envDefault:"5432"`
	Secret  string `env:"TEST_CFG_SECRET"`
	Enabled bool   `env:"TEST_CFG_ENABLED" envDefault:"true"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_CFG_HOST", "db.internal")
	t.Setenv("TEST_CFG_SECRET", "s3cret")

	var cfg testConfig
	err := config.Load(&cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.True(t, cfg.Enabled)
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	err := config.Load(&cfg)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	require.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := config.Load(&cfg)
	require.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "boom")

	assert.Panics(t, func() {
		var cfg testConfig
		config.MustLoad(&cfg)
	})
}
