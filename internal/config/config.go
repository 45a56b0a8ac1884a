// Package config resolves Idea Vault configuration from compiled defaults,
// an optional .env file, and IDEAVAULT_* environment variables, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names accepted by IDEAVAULT_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Backend  string
	Log      LogConfig
	SQLite   SQLiteConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type LogConfig struct {
	Level string // "info" or "debug"
}

type SQLiteConfig struct {
	DataDir string
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func defaults() Config {
	return Config{
		Backend: BackendSQLite,
		Log:     LogConfig{Level: "info"},
		SQLite:  SQLiteConfig{DataDir: defaultDataDir()},
		Postgres: PostgresConfig{
			DSN: "host=localhost port=5432 user=ideavault password=ideavault dbname=ideavault sslmode=disable",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			DB:     0,
			Prefix: "ideavault:",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ideavault"
	}
	return filepath.Join(home, ".ideavault")
}

// Load reads .env from the working directory if present, then applies
// environment overrides on top of the defaults.
func Load() (Config, error) {
	// Absence of .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := defaults()
	cfg.Backend = getEnv("IDEAVAULT_BACKEND", cfg.Backend)
	cfg.Log.Level = getEnv("IDEAVAULT_LOG_LEVEL", cfg.Log.Level)
	cfg.SQLite.DataDir = getEnv("IDEAVAULT_DATA_DIR", cfg.SQLite.DataDir)
	cfg.Postgres.DSN = getEnv("IDEAVAULT_POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Redis.Addr = getEnv("IDEAVAULT_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("IDEAVAULT_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("IDEAVAULT_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Prefix = getEnv("IDEAVAULT_REDIS_PREFIX", cfg.Redis.Prefix)

	switch cfg.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown backend %q (expected %s, %s, or %s)",
			cfg.Backend, BackendSQLite, BackendPostgres, BackendRedis)
	}

	return cfg, nil
}

// Entry is one resolved configuration key for display.
type Entry struct {
	Key   string
	Value string
}

// ShowAll flattens a Config into display order. Secrets are masked.
func ShowAll(cfg Config) []Entry {
	password := cfg.Redis.Password
	if password != "" {
		password = "********"
	}
	return []Entry{
		{Key: "backend", Value: cfg.Backend},
		{Key: "log.level", Value: cfg.Log.Level},
		{Key: "sqlite.data_dir", Value: cfg.SQLite.DataDir},
		{Key: "postgres.dsn", Value: maskDSNPassword(cfg.Postgres.DSN)},
		{Key: "redis.addr", Value: cfg.Redis.Addr},
		{Key: "redis.password", Value: password},
		{Key: "redis.db", Value: strconv.Itoa(cfg.Redis.DB)},
		{Key: "redis.prefix", Value: cfg.Redis.Prefix},
	}
}

func maskDSNPassword(dsn string) string {
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=********"
		}
	}
	return strings.Join(fields, " ")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
