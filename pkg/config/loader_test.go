package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/config"
)

type sampleConfig struct {
	Addr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"3s"`
	Retries int           `env:"RETRIES"`
}

type requiredConfig struct {
	Secret string `env:"SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[sampleConfig](config.WithEnvironment(map[string]string{}))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Zero(t, cfg.Retries)
	})

	t.Run("values override defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[sampleConfig](config.WithEnvironment(map[string]string{
			"HTTP_ADDR": ":9090",
			"TIMEOUT":   "500ms",
			"RETRIES":   "1",
		}))
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
		assert.Equal(t, 1, cfg.Retries)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[sampleConfig](
			config.WithPrefix("APP_"),
			config.WithEnvironment(map[string]string{"APP_HTTP_ADDR": ":7070"}),
		)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Addr)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[requiredConfig](config.WithEnvironment(map[string]string{}))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[sampleConfig](config.WithEnvironment(map[string]string{"RETRIES": "many"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("missing env file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[sampleConfig](config.WithEnvFiles(filepath.Join(t.TempDir(), "nope.env")))
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})

	t.Run("must load panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			config.MustLoad[requiredConfig](config.WithEnvironment(map[string]string{}))
		})
	})
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VD_TEST_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("VD_TEST_SECRET") })

	cfg, err := config.Load[requiredConfig](config.WithEnvFiles(path), config.WithPrefix("VD_TEST_"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Secret)
}
