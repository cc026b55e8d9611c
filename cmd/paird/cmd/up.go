package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pairsphere/paird/internal/daemon"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the paird rendezvous server",
	Long: "Start the paird daemon. Binds the websocket endpoint, connects to the\n" +
		"directory service for token verification and network membership, and\n" +
		"serves until interrupted.",
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(_ *cobra.Command, _ []string) error {
	// 1. Parse config.
	cfg, err := daemon.ParseConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("paird up: %w", err)
	}

	// Apply CLI flag overrides.
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if listen != "" {
		cfg.Hub.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("paird up: %w", err)
	}

	// 2. Set up structured logger.
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting paird", "version", buildVersion, "listen", cfg.Hub.Listen)

	// 3. Assemble and run the daemon until a shutdown signal.
	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("paird up: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("paird up: %w", err)
	}

	logger.Info("paird stopped")
	return nil
}

func setupLogger(level string) *slog.Logger {
	lvl, err := daemon.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
