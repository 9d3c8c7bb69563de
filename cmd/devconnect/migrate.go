package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-devconnect/repository"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long:  `Apply the SQL migrations for the configured dialect. Migrations that already ran are skipped.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	cmd.Println("Connecting to database...")
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	cmd.Println("Running migrations...")
	if err := repository.Migrate(ctx, client); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		cmd.Printf("Applied %s\n", report.String())
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
