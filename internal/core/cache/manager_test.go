package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, maxSize int, ttl time.Duration) (*Manager, *time.Time) {
	t.Helper()
	m := NewManager(maxSize, ttl, 0)
	t.Cleanup(func() { _ = m.Close() })

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestManagerGetSet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 10, time.Hour)

	_, err := m.Get(ctx, "product:123")
	require.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "product:123", `{"name":"bar"}`))
	val, err := m.Get(ctx, "product:123")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"bar"}`, val)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 1, stats["size"])
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, 10, time.Minute)

	require.NoError(t, m.Set(ctx, "k", "v"))
	*clock = clock.Add(2 * time.Minute)

	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, common.ErrCacheMiss)
	assert.Equal(t, 0, m.GetStats()["size"])
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, 2, time.Hour)

	require.NoError(t, m.Set(ctx, "a", "1"))
	*clock = clock.Add(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))

	// a 被讀取過，b 應被淘汰
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManagerOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 1, time.Hour)

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "a", "2"))

	val, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", val)
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager(1, time.Minute, 10*time.Millisecond)
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}

func TestNewStoreDisabled(t *testing.T) {
	store, err := NewStore(context.Background(), config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(context.Background(), config.CacheConfig{
		Enabled:         true,
		MaxSize:         5,
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &Manager{}, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, config.CacheConfig{RedisAddr: addr, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	key := "test:" + common.GenerateUUID()
	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, key, "value"))
	val, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", val)
}
