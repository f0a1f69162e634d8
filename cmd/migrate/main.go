package main

// Run database migrations:
//   go run ./cmd/migrate
// Show the applied version:
//   go run ./cmd/migrate status

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"legalassist-backend/internal/shared/config"
	"legalassist-backend/internal/shared/storage/db"
	"legalassist-backend/internal/shared/telemetry"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if strings.TrimSpace(databaseURL) != "" {
				cfg.DatabaseURL = databaseURL
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Overrides DATABASE_URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version and the embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if strings.TrimSpace(databaseURL) != "" {
				cfg.DatabaseURL = databaseURL
			}
			return status(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	})
	return cmd
}

func status(ctx context.Context, cfg config.Config, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()

	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	names, err := db.MigrationNames()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	fmt.Fprintf(w, "schema version: %d\n", version)
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func run(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	telemetry.Info("migrate.complete", nil)
	return nil
}
