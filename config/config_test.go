package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "123:abc"
session:
  backend: redis
  prefix: "bot:"
  ttl_seconds: 3600
redis:
  addr: "localhost:6379"
  db: 2
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, "bot:", cfg.Session.Prefix)
	assert.Equal(t, 3600, cfg.Session.TTLSeconds)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "file-token"
session:
  backend: memory
`)
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("SESSION_TTL_SECONDS", "60")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, 60, cfg.Session.TTLSeconds)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, BackendMemory, cfg.Session.Backend, "backend should default to memory")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	base := func() *Config {
		return &Config{Telegram: TelegramConfig{Token: "123:abc"}}
	}

	t.Run("token required", func(t *testing.T) {
		cfg := base()
		cfg.Telegram.Token = ""
		assert.Error(t, Normalize(cfg))
	})

	t.Run("backend normalized", func(t *testing.T) {
		cfg := base()
		cfg.Session.Backend = " Redis "
		cfg.Redis.Addr = "localhost:6379"
		require.NoError(t, Normalize(cfg))
		assert.Equal(t, BackendRedis, cfg.Session.Backend)
	})

	t.Run("invalid backend", func(t *testing.T) {
		cfg := base()
		cfg.Session.Backend = "etcd"
		assert.Error(t, Normalize(cfg))
	})

	t.Run("redis requires addr", func(t *testing.T) {
		cfg := base()
		cfg.Session.Backend = BackendRedis
		assert.Error(t, Normalize(cfg))
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := base()
		cfg.Session.Backend = BackendPostgres
		assert.Error(t, Normalize(cfg))
	})

	t.Run("negative ttl rejected", func(t *testing.T) {
		cfg := base()
		cfg.Session.TTLSeconds = -1
		assert.Error(t, Normalize(cfg))
	})
}
