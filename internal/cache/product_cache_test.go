package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewProductCache(rdb, ttl), mr
}

func TestProductCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t, 5*time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	catID := uint(2)
	p := &models.Product{
		ID:         1,
		Name:       "mug",
		Price:      decimal.RequireFromString("10.50"),
		CategoryID: &catID,
		Category:   &models.Category{ID: 2, Name: "kitchen"},
	}
	require.NoError(t, c.Set(ctx, p))
	assert.True(t, mr.Exists("product:1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("product:1"))

	got, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mug", got.Name)
	assert.True(t, p.Price.Equal(got.Price))
	require.NotNil(t, got.Category)
	assert.Equal(t, "kitchen", got.Category.Name)

	require.NoError(t, c.Invalidate(ctx, 1))
	_, ok, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCache_Expires(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Product{ID: 3, Name: "plate"}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCache_CorruptEntry(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("product:4", "{not json"))

	_, ok, err := c.Get(context.Background(), 4)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	rdb, err := NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
