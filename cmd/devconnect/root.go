package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-devconnect/config"
	"github.com/goliatone/go-devconnect/logger"
	"github.com/goliatone/go-devconnect/persistence"
	"github.com/goliatone/go-devconnect/repository"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the devconnect CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devconnect",
		Short:         "devconnect - developer profiles API",
		Long:          `devconnect serves account registration, token based login and developer profiles.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.WithConfigFile(configFile), config.WithEnvFile(envFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	})
}

func connect(ctx context.Context, cfg *config.Config) (*persistence.Client, error) {
	client, err := repository.Open(ctx, cfg.Persistence.DSN,
		persistence.WithRetries(cfg.Persistence.ConnectRetries),
		persistence.WithDebug(cfg.Persistence.Debug),
	)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return client, nil
}
