package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamesync/internal/config"
	"github.com/iudanet/gamesync/internal/server"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		address    string
		dbPath     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "gamesync-server",
		Short:         "GameSync synchronization server",
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// флаги имеют приоритет над файлом и окружением
			flags := cmd.Flags()
			if flags.Changed("address") {
				cfg.Address = address
			}
			if flags.Changed("db") {
				cfg.DatabasePath = dbPath
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, cfg *config.Server) error {
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	if cfg.JWTSecret == config.DefaultServer().JWTSecret {
		logger.Warn("Using default JWT secret, set GAMESYNC_JWT_SECRET in production")
	}

	srv, err := server.New(ctx, cfg, Version, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Failed to close server storage", "error", err)
		}
	}()

	return srv.Run(ctx)
}
