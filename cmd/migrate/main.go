package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/bookify-backend/pkg/config"
	"github.com/angelmondragon/bookify-backend/pkg/db"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/migrate"
)

var migrationsDir string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the bookify payments schema with goose",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", migrate.DefaultDir, "migrations directory; the default reads the copy embedded in the binary")

	rootCmd.AddCommand(gooseCmd("up", "Apply all pending migrations"))
	rootCmd.AddCommand(gooseCmd("down", "Roll back the latest migration"))
	rootCmd.AddCommand(gooseCmd("status", "Print applied and pending migrations"))
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func gooseCmd(command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), command, func(ctx context.Context, sqlDB *sql.DB) error {
				if err := migrate.Run(ctx, sqlDB, migrationsDir, command, cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("goose %s failed: %w", command, err)
				}
				return nil
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version [YYYYMMDDHHMMSS]",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), "version", func(ctx context.Context, sqlDB *sql.DB) error {
				if err := migrate.MigrateToVersion(ctx, sqlDB, migrationsDir, args[0], cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("goose version migrate failed: %w", err)
				}
				return nil
			})
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Scaffold a new SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(migrationsDir, args[0])
			if err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check migration files without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrate.ValidateDir(migrationsDir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	}
}

// withDatabase loads config, opens the database and hands fn a *sql.DB.
func withDatabase(ctx context.Context, command string, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": command,
		"dir": migrationsDir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")
	return fn(ctx, sqlDB)
}
