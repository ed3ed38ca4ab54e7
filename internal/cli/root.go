package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/logging"
	envcfg "github.com/Skotchmaster/storefront/pkg/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront e-commerce backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv(envFile)
		slog.SetDefault(logging.New(envcfg.EnvDefault("LOG_LEVEL", "info")))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "command", rootCmd.Name(), "error", err)
		os.Exit(1)
	}
}
