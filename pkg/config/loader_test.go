package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type defaultsConfig struct {
	Name    string        `env:"CFG_TEST_DEFAULT_NAME" envDefault:"twofactor"`
	Limit   int           `env:"CFG_TEST_DEFAULT_LIMIT" envDefault:"5"`
	Window  time.Duration `env:"CFG_TEST_DEFAULT_WINDOW" envDefault:"1m"`
	Enabled bool          `env:"CFG_TEST_DEFAULT_ENABLED" envDefault:"true"`
}

type envConfig struct {
	Name string `env:"CFG_TEST_ENV_NAME"`
}

type cachedConfig struct {
	Name string `env:"CFG_TEST_CACHED_NAME"`
}

type requiredConfig struct {
	Value string `env:"CFG_TEST_REQUIRED_VALUE,required"`
}

type validatedConfig struct {
	Limit int `env:"CFG_TEST_VALIDATED_LIMIT" envDefault:"0"`
}

func (c *validatedConfig) Validate() error {
	if c.Limit < 1 {
		return errors.New("limit must be positive")
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "twofactor", cfg.Name)
	assert.Equal(t, 5, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.True(t, cfg.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CFG_TEST_ENV_NAME", "from-env")

	var cfg envConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-env", cfg.Name)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED_NAME", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFG_TEST_CACHED_NAME", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, "first", second.Name)
}

func TestLoad_Required(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoad_Validator(t *testing.T) {
	var cfg validatedConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *envConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}
