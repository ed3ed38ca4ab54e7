package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, db.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, db.Down)
	},
}

// runMigrate uses the embedded SQL files on postgres. sqlite has no versioned
// migrations, so "up" falls back to gorm's AutoMigrate there.
func runMigrate(cmd *cobra.Command, dir db.Direction) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	if cfg.Driver == db.DriverSQLite {
		if dir != db.Up {
			return errors.New("migrate down is only supported on postgres")
		}
		gdb, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if err := models.AutoMigrate(gdb); err != nil {
			return err
		}
		slog.Info("schema migrated", "driver", cfg.Driver)
		return nil
	}

	if err := db.Migrate(cfg.URL, dir); err != nil {
		return err
	}
	slog.Info("migrations applied", "direction", string(dir))
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
