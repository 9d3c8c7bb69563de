package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-devconnect/metrics"
	"github.com/goliatone/go-devconnect/repository"
	"github.com/goliatone/go-devconnect/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. The process exits with a non-zero status when the
database cannot be reached at startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "apply pending migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, autoMigrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connect(ctx, cfg)
	if err != nil {
		log.Error("database unreachable", "error", err)
		return err
	}
	defer client.Close()

	if autoMigrate {
		if err := repository.Migrate(ctx, client); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	srv, err := server.New(server.Options{
		Config:  cfg,
		DB:      client.Bun(),
		Logger:  log.WithComponent("http"),
		Metrics: metrics.New(),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "address", cfg.Server.Address)
		errCh <- srv.App.Listen(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return oops.Code("SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return srv.App.ShutdownWithTimeout(shutdownTimeout)
}
