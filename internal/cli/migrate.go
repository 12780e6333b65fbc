package cli

import (
	"context"
	"fmt"

	"daily-trivia-service/internal/config"
	"daily-trivia-service/internal/infra/sqlstore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	return runMigrationsWithConfig(ctx, cfg, log)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log logrus.FieldLogger) error {
	if cfg.Database.Driver == "memory" {
		return fmt.Errorf("database driver is memory; nothing to migrate")
	}

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	group, err := sqlstore.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}

// NewGrantAdminCmd records a user in the admins table.
func NewGrantAdminCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Allow a user to trigger question generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return fmt.Errorf("database driver is memory; admins come from auth.admin_user_ids")
			}
			db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlstore.New(db).GrantAdmin(cmd.Context(), userID); err != nil {
				return err
			}
			log.WithField("user_id", userID).Info("admin granted")
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to grant")
	return cmd
}
