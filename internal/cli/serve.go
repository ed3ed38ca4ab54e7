package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/app"
	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.IntoContext(ctx, logger)

		res, err := openResources(ctx, cfg)
		if err != nil {
			return err
		}
		defer res.close()

		if cfg.DB.AutoMigrate {
			if err := models.AutoMigrate(res.db); err != nil {
				return err
			}
			logger.Info("schema migrated")
		}

		opts := app.Options{Config: cfg, DB: res.db, Publisher: res.publisher, Logger: logger}
		if res.index != nil {
			opts.Index = res.index
		}
		if res.redis != nil {
			opts.Cache = cache.NewProductCache(res.redis, cfg.Redis.ProductTTL)
		}
		a := app.New(opts)

		if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
			if _, created, err := a.Account.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
				logger.Error("admin seeding failed", "error", err)
			} else if created {
				logger.Info("admin user created", "email", cfg.Admin.Email)
			}
		}
		if res.index != nil {
			prepareIndex(ctx, logger, res.index, a.Catalog)
		}

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           a.Echo,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			ReadHeaderTimeout: 3 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil
	},
}

type indexer interface {
	EnsureIndex(ctx context.Context) error
}

// prepareIndex creates the product index and fills it. Failures are logged and
// the server starts anyway.
func prepareIndex(ctx context.Context, logger *slog.Logger, ix indexer, svc *catalog.Service) {
	if err := ix.EnsureIndex(ctx); err != nil {
		logger.Error("search index setup failed", "error", err)
		return
	}
	n, err := svc.Reindex(ctx)
	if err != nil {
		logger.Error("reindex failed", "indexed", n, "error", err)
		return
	}
	logger.Info("products reindexed", "count", n)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
