package command

// root.go defines foodgram-admin, the operator tool that runs next to the API
// server against the same .env configuration.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"foodgram/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "foodgram-admin",
	Short: "foodgram-admin - operator commands for the Foodgram API",
	Long: `foodgram-admin works directly on the Foodgram database. Use it to:
- Load the tag and ingredient catalogue from a JSON export
- Check the environment configuration before starting the API server

Use "foodgram-admin command -h" to see the flags of a command.`,
	SilenceUsage: true,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log database activity")
}

// loadConfig reads and validates the same configuration the API server uses.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
