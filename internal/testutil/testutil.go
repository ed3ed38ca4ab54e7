package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
)

const Password = "Passw0rd1"

// NewDB opens a private in-memory sqlite database with foreign keys enforced
// and the schema migrated. It is closed when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&_pragma=foreign_keys(1)", uuid.NewString())
	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn, db.PoolConfig{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// NewPostgresDB connects to POSTGRES_TEST_DSN and migrates the schema.
// The test is skipped when the variable is unset.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}
	gdb, err := db.Open(context.Background(), db.DriverPostgres, dsn, db.PoolConfig{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, email string, roles ...string) *models.User {
	t.Helper()

	h, err := hash.HashPassword(Password, bcrypt.MinCost)
	require.NoError(t, err)
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	u := &models.User{
		UserName:     email,
		Email:        email,
		FullName:     "Test " + email,
		PasswordHash: h,
		Roles:        roles,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func CreateCategory(t *testing.T, gdb *gorm.DB, name string) *models.Category {
	t.Helper()

	c := &models.Category{Name: name, Description: name + " things"}
	require.NoError(t, gdb.Create(c).Error)
	return c
}

func CreateProduct(t *testing.T, gdb *gorm.DB, name, price string) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Status:      "Available",
		ImagePath:   "/images/" + name + ".png",
	}
	require.NoError(t, gdb.Omit("Category").Create(p).Error)
	return p
}

type RecordedEvent struct {
	Topic string
	Key   string
	Event events.Event
}

// EventRecorder is an events.Publisher that keeps everything it is given.
type EventRecorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func (r *EventRecorder) Publish(_ context.Context, topic, key string, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Topic: topic, Key: key, Event: ev})
	return nil
}

func (r *EventRecorder) Close() error { return nil }

func (r *EventRecorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}

func (r *EventRecorder) Types(topic string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Topic == topic {
			out = append(out, e.Event.Type)
		}
	}
	return out
}
