package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/migrate"
)

const serviceName = "migrate"

var errSQLiteOnlySync = errors.New("sqlite databases only support the sync command")

func main() {
	_ = godotenv.Load()

	var dir string
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Manage the fulfillment database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "goose migrations directory")

	for _, command := range []migrate.Command{migrate.CommandUp, migrate.CommandDown, migrate.CommandRedo, migrate.CommandStatus} {
		root.AddCommand(gooseCmd(command, &dir))
	}
	root.AddCommand(toVersionCmd(&dir), createCmd(&dir), validateCmd(&dir), syncCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func gooseCmd(command migrate.Command, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   string(command),
		Short: "Run goose " + string(command) + " against postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd.Context(), string(command), *dir, func(ctx context.Context, client *db.Client) error {
				sqlDB, err := client.DB().DB()
				if err != nil {
					return err
				}
				return migrate.Run(ctx, sqlDB, *dir, command)
			})
		},
	}
}

func toVersionCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "to <version>",
		Short: "Migrate up or down to a YYYYMMDDHHMMSS version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd.Context(), "to", *dir, func(ctx context.Context, client *db.Client) error {
				sqlDB, err := client.DB().DB()
				if err != nil {
					return err
				}
				return migrate.MigrateToVersion(ctx, sqlDB, *dir, args[0])
			})
		},
	}
}

func createCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty timestamped SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(*dir, args[0])
			if err != nil {
				return fmt.Errorf("create migration: %w", err)
			}
			cmd.Println("created migration:", path)
			return nil
		},
	}
}

func validateCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check migration files without touching a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migrate.ValidateDir(*dir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			cmd.Println("migration validation passed")
			return nil
		},
	}
}

// SQL migrations use postgres types, so sqlite schemas are built from the models.
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Create or update a sqlite schema from the models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), "sync", "", func(ctx context.Context, logg *logger.Logger, client *db.Client) error {
				if client.Dialect() != config.DriverSQLite {
					return errors.New("sync is only supported on sqlite; use up for postgres")
				}
				if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
					return fmt.Errorf("sqlite schema sync: %w", err)
				}
				logg.Info(ctx, "sqlite schema synced")
				return nil
			})
		},
	}
}

func withPostgres(ctx context.Context, command, dir string, fn func(context.Context, *db.Client) error) error {
	return withDatabase(ctx, command, dir, func(ctx context.Context, logg *logger.Logger, client *db.Client) error {
		if client.Dialect() == config.DriverSQLite {
			return errSQLiteOnlySync
		}
		logg.Info(ctx, "migrate ready")
		if err := fn(ctx, client); err != nil {
			return fmt.Errorf("goose %s failed: %w", command, err)
		}
		return nil
	})
}

func withDatabase(ctx context.Context, command, dir string, fn func(context.Context, *logger.Logger, *db.Client) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    command,
		"dir":    dir,
		"driver": cfg.DB.Driver,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	return fn(ctx, logg, client)
}
