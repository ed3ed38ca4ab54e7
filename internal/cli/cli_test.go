package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/pkg/db"
)

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	p, err := newPublisher(config.EventsConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, events.Noop{}, p)

	p, err = newPublisher(config.EventsConfig{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.IsType(t, &mykafka.Producer{}, p)
	require.NoError(t, p.Close())

	_, err = newPublisher(config.EventsConfig{Driver: "rabbitmq"})
	assert.Error(t, err)
}

func TestMigrateAndSeedAdmin_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "storefront.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("LOG_LEVEL", "error")

	missingEnv := filepath.Join(t.TempDir(), "missing.env")

	rootCmd.SetArgs([]string{"migrate", "up", "--env-file", missingEnv})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	rootCmd.SetArgs([]string{"migrate", "down", "--env-file", missingEnv})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))

	rootCmd.SetArgs([]string{"seed-admin", "--env-file", missingEnv, "--email", "Root@Example.com", "--password", "R00tPassword"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn, db.PoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	var u models.User
	require.NoError(t, gdb.Where("user_name = ?", "root@example.com").First(&u).Error)
	assert.True(t, u.HasRole(models.RoleAdmin))
}
