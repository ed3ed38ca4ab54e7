package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/mq"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/pkg/db"
)

func openDB(ctx context.Context, cfg config.DBConfig) (*gorm.DB, error) {
	pool := db.DefaultPool()
	pool.MaxOpenConns = cfg.MaxOpenConns
	pool.MaxIdleConns = cfg.MaxIdleConns
	return db.Open(ctx, cfg.Driver, cfg.URL, pool)
}

func newPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return mykafka.NewProducer(cfg.KafkaBrokers)
	case "rabbitmq":
		return mq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	default:
		return events.Noop{}, nil
	}
}

// resources holds the optional backends; each stays nil when not configured.
type resources struct {
	db        *gorm.DB
	publisher events.Publisher
	redis     *redis.Client
	index     *search.Index
}

func openResources(ctx context.Context, cfg config.Config) (*resources, error) {
	r := &resources{}

	gdb, err := openDB(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	r.db = gdb

	if r.publisher, err = newPublisher(cfg.Events); err != nil {
		r.close()
		return nil, fmt.Errorf("events: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			r.close()
			return nil, err
		}
		r.redis = rdb
	}

	if cfg.Elastic.URL != "" {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.Elastic.URL, User: cfg.Elastic.User, Password: cfg.Elastic.Password})
		if err != nil {
			r.close()
			return nil, err
		}
		r.index = search.NewIndex(client, cfg.Elastic.Index)
	}
	return r, nil
}

// close releases the publisher first so buffered events flush while the
// database is still open.
func (r *resources) close() {
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			slog.Warn("event publisher close error", "error", err)
		}
	}
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			slog.Warn("redis close error", "error", err)
		}
	}
	if r.db != nil {
		if err := db.Close(r.db); err != nil {
			slog.Warn("db close error", "error", err)
		}
	}
}
