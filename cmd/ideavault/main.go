package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ideavault/internal/config"
	"ideavault/internal/storage/postgres"
	"ideavault/internal/storage/redis"
	"ideavault/internal/storage/sqlite"
	"ideavault/internal/vault"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "ideavault",
	Short: "Track startup problems, ideas, and research notes",
	Long: `ideavault is a single-user vault for early-stage startup research:
the problems you observe, the product ideas that might solve them, the notes
behind both, and the links between problems and ideas.

Run "ideavault dashboard" for an overview of the vault.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(problemCmd)
	rootCmd.AddCommand(ideaCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return 1
	}
	return 0
}

// openStore builds the configured storage backend. Commands open the store
// per invocation and close it when done. Tests swap this out.
var openStore = func() (vault.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLite.DataDir, log)
	case config.BackendPostgres:
		return postgres.Open(cfg.Postgres.DSN, log)
	case config.BackendRedis:
		return redis.Open(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, log)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// newLogger builds a stderr logger tagged with a per-run session id so
// interleaved runs against a shared backend can be told apart.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("session", uuid.NewString())), nil
}
