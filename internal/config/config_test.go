package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, BackendSQLite, cfg.Backend)
	require.Equal(t, "info", cfg.Log.Level)
	require.NotEmpty(t, cfg.SQLite.DataDir)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, "ideavault:", cfg.Redis.Prefix)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IDEAVAULT_BACKEND", "redis")
	t.Setenv("IDEAVAULT_LOG_LEVEL", "debug")
	t.Setenv("IDEAVAULT_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("IDEAVAULT_REDIS_DB", "3")
	t.Setenv("IDEAVAULT_REDIS_PREFIX", "vault-test:")
	t.Setenv("IDEAVAULT_DATA_DIR", "/tmp/vault-data")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, BackendRedis, cfg.Backend)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	require.Equal(t, 3, cfg.Redis.DB)
	require.Equal(t, "vault-test:", cfg.Redis.Prefix)
	require.Equal(t, "/tmp/vault-data", cfg.SQLite.DataDir)
}

func TestLoadBadRedisDBFallsBack(t *testing.T) {
	t.Setenv("IDEAVAULT_REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Redis.DB)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("IDEAVAULT_BACKEND", "dynamodb")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "dynamodb")
}
