package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	envcfg "github.com/Skotchmaster/storefront/pkg/config"
)

const minSecretLen = 16

type DBConfig struct {
	Driver       string
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type JWTConfig struct {
	Secret        []byte
	Issuer        string
	Audience      string
	TokenValidity time.Duration
}

type EventsConfig struct {
	Driver         string
	KafkaBrokers   []string
	RabbitURL      string
	RabbitExchange string
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ProductTTL time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DB  DBConfig
	JWT JWTConfig

	RevokeRefreshOnLogout bool
	ClearCartOnCheckout   bool

	Events  EventsConfig
	Elastic ElasticConfig
	Redis   RedisConfig

	CORSOrigins []string
	Admin       AdminConfig
}

// LoadDotEnv reads path into the environment. A missing file is not an error.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("env file not found, using process environment", "path", path)
			return
		}
		slog.Warn("env file not loaded", "path", path, "error", err)
	}
}

func LoadDatabase() (DBConfig, error) {
	db := DBConfig{
		Driver:       strings.ToLower(envcfg.EnvDefault("DB_DRIVER", "postgres")),
		URL:          envcfg.EnvDefault("DATABASE_URL", ""),
		MaxOpenConns: envcfg.EnvIntDefault("DB_MAX_OPEN_CONNS", 20),
		MaxIdleConns: envcfg.EnvIntDefault("DB_MAX_IDLE_CONNS", 10),
		AutoMigrate:  envcfg.EnvBoolDefault("AUTO_MIGRATE", false),
	}
	if err := envcfg.MustNonEmpty(db.URL, "DATABASE_URL"); err != nil {
		return db, err
	}
	switch db.Driver {
	case "postgres", "sqlite":
	default:
		return db, fmt.Errorf("DB_DRIVER %q is not supported", db.Driver)
	}
	return db, nil
}

func Load() (Config, error) {
	db, err := LoadDatabase()
	if err != nil {
		return Config{}, err
	}

	brokers := envcfg.CSV(envcfg.EnvDefault("KAFKA_BROKERS", ""))
	defaultDriver := "none"
	if len(brokers) > 0 {
		defaultDriver = "kafka"
	}

	cfg := Config{
		ServiceName: envcfg.EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  envcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    envcfg.EnvDefault("LOG_LEVEL", "info"),

		DB: db,
		JWT: JWTConfig{
			Secret:        []byte(envcfg.EnvDefault("JWT_SECRET", "")),
			Issuer:        envcfg.EnvDefault("JWT_ISSUER", "storefront"),
			Audience:      envcfg.EnvDefault("JWT_AUDIENCE", "storefront-clients"),
			TokenValidity: time.Duration(envcfg.EnvIntDefault("JWT_TOKEN_VALIDITY_MINS", 30)) * time.Minute,
		},

		RevokeRefreshOnLogout: envcfg.EnvBoolDefault("REVOKE_REFRESH_ON_LOGOUT", false),
		ClearCartOnCheckout:   envcfg.EnvBoolDefault("CLEAR_CART_ON_CHECKOUT", false),

		Events: EventsConfig{
			Driver:         strings.ToLower(envcfg.EnvDefault("EVENTS_DRIVER", defaultDriver)),
			KafkaBrokers:   brokers,
			RabbitURL:      envcfg.EnvDefault("RABBITMQ_URL", ""),
			RabbitExchange: envcfg.EnvDefault("RABBITMQ_EXCHANGE", "storefront.events"),
		},
		Elastic: ElasticConfig{
			URL:      envcfg.EnvDefault("ES_URL", ""),
			User:     envcfg.EnvDefault("ES_USER", ""),
			Password: envcfg.EnvDefault("ES_PASSWORD", ""),
			Index:    envcfg.EnvDefault("ES_INDEX", "products"),
		},
		Redis: RedisConfig{
			Addr:       envcfg.EnvDefault("REDIS_ADDR", ""),
			Password:   envcfg.EnvDefault("REDIS_PASSWORD", ""),
			DB:         envcfg.EnvIntDefault("REDIS_DB", 0),
			ProductTTL: envcfg.EnvDurationDefault("PRODUCT_CACHE_TTL", 5*time.Minute),
		},

		CORSOrigins: envcfg.CSV(envcfg.EnvDefault("CORS_ORIGINS", "http://localhost:4200")),
		Admin: AdminConfig{
			Email:    envcfg.EnvDefault("ADMIN_EMAIL", ""),
			Password: envcfg.EnvDefault("ADMIN_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := envcfg.MustNonEmptyBytes(c.JWT.Secret, "JWT_SECRET"); err != nil {
		return err
	}
	if len(c.JWT.Secret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if c.JWT.TokenValidity <= 0 {
		return errors.New("JWT_TOKEN_VALIDITY_MINS must be positive")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT %d is out of range", c.ServerPort)
	}
	switch c.Events.Driver {
	case "none":
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("EVENTS_DRIVER=kafka requires KAFKA_BROKERS")
		}
	case "rabbitmq":
		if err := envcfg.MustNonEmpty(c.Events.RabbitURL, "RABBITMQ_URL"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("EVENTS_DRIVER %q is not supported", c.Events.Driver)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
