package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/assetguard/internal/app"
	"github.com/rpggio/assetguard/internal/config"
	"github.com/rpggio/assetguard/internal/events"
	"github.com/rpggio/assetguard/internal/sqlite"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "assetguard",
	Short: "Shared asset claims, conflict tracking and message quotas",
	Long: `Assetguard records which users claim which assets, keeps a conflict record
for every asset claimed by more than one user, and caps how many messages
each user may send.

Run "assetguard serve" to expose the operations over HTTP or MCP stdio. The
other commands act on the database directly as the system operator.`,
	SilenceUsage: true,
}

var (
	configPath string
	dbPath     string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (overrides ASSETGUARD_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		if err := os.Setenv("ASSETGUARD_CONFIG_PATH", configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	return cfg, nil
}

// instance is an opened database with the service stack on top.
type instance struct {
	cfg    config.Config
	logger *slog.Logger
	stack  *app.Stack
	close  func()
}

func openInstance(cfg config.Config, logger *slog.Logger, publisher events.Publisher) (*instance, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	stack := app.New(db, app.Options{
		DefaultMaxMessages: cfg.Quota.DefaultMaxMessages,
		MaxAttempts:        cfg.Registry.MaxAttempts,
		Publisher:          publisher,
		Logger:             logger,
	})
	return &instance{
		cfg:    cfg,
		logger: logger,
		stack:  stack,
		close:  func() { _ = db.Close() },
	}, nil
}

// openOperator opens the stack for one-shot operator commands. Logs go to
// the command's stderr.
func openOperator(cmd *cobra.Command) (*instance, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return openInstance(cfg, logger, nil)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
