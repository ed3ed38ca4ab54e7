package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/account"
	envcfg "github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
)

var seedEmail, seedPassword string

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin user, or promote an existing user to admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := seedEmail
		if email == "" {
			email = envcfg.EnvDefault("ADMIN_EMAIL", "")
		}
		password := seedPassword
		if password == "" {
			password = envcfg.EnvDefault("ADMIN_PASSWORD", "")
		}
		if email == "" {
			return errors.New("admin email is required (--email or ADMIN_EMAIL)")
		}

		cfg, err := config.LoadDatabase()
		if err != nil {
			return err
		}
		gdb, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		svc := &account.Service{Repo: repo.New(gdb), Events: events.Noop{}}
		u, created, err := svc.SeedAdmin(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		slog.Info("admin ready", "user_id", u.ID, "email", u.Email, "created", created)
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "admin email (defaults to ADMIN_EMAIL)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "password for a newly created admin (defaults to ADMIN_PASSWORD)")
	rootCmd.AddCommand(seedAdminCmd)
}
