package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	pgxadapter "github.com/lborres/guildhall/adapters/pgx"
	"github.com/lborres/guildhall/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the PostgreSQL database.`,
		RunE:  runMigrate,
	}

	d := config.Default()
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: $"+config.EnvDatabaseURL+")")
	cmd.Flags().Uint64("database.connect_attempts", d.Database.ConnectAttempts, "connection attempts before giving up")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	databaseURL, _ := cmd.Flags().GetString("database.url")
	if databaseURL == "" {
		databaseURL = os.Getenv(config.EnvDatabaseURL)
	}
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or %s is required", config.EnvDatabaseURL)
	}
	attempts, _ := cmd.Flags().GetUint64("database.connect_attempts")

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	pool, err := pgxadapter.Connect(ctx, pgxadapter.ConnConfig{URL: databaseURL, Attempts: attempts})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	if err := pgxadapter.Migrate(ctx, pool); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
