package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolioapi.app/models"
)

func testSnapshot() *models.QualitySnapshot {
	return &models.QualitySnapshot{
		GeneratedAt: "2026-08-14T06:30:00Z",
		Projects:    []models.ProjectHealth{{Name: "portfolio-site", Status: "healthy"}},
		Debug:       &models.SnapshotDebug{Source: "proxy"},
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, found := c.Get(ctx, "missing")
	assert.False(t, found)

	c.Set(ctx, "key", []byte("value"), time.Minute)
	data, found := c.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, []byte("value"), data)

	c.Delete(ctx, "key")
	_, found = c.Get(ctx, "key")
	assert.False(t, found)
}

func TestMemoryCache_ExpiredEntryNotServed(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "key", []byte("value"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get(ctx, "key")
	assert.False(t, found)
}

func TestMemoryCache_NilValueIgnored(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "key", nil, time.Minute)
	_, found := c.Get(ctx, "key")
	assert.False(t, found)
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Clear(ctx)

	_, foundA := c.Get(ctx, "a")
	_, foundB := c.Get(ctx, "b")
	assert.False(t, foundA)
	assert.False(t, foundB)
}

func TestSnapshotCache_RoundTripsSnapshot(t *testing.T) {
	c := NewSnapshotCache(NewMemoryCache())

	c.Set("quality:latest", testSnapshot(), time.Minute)

	got, found := c.Get("quality:latest")
	require.True(t, found)
	assert.Equal(t, "2026-08-14T06:30:00Z", got.GeneratedAt)
	require.Len(t, got.Projects, 1)
	assert.Equal(t, "proxy", got.Debug.Source)
}

func TestSnapshotCache_NilSnapshotIgnored(t *testing.T) {
	c := NewSnapshotCache(NewMemoryCache())

	c.Set("quality:latest", nil, time.Minute)

	_, found := c.Get("quality:latest")
	assert.False(t, found)
}

func setupRedisCache(t *testing.T) (CacheInterface, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	c, err := NewRedisCache(&RedisCacheConfig{
		Addr:        server.Addr(),
		DialTimeout: time.Second,
		ReadTimeout: time.Second,
	})
	require.NoError(t, err)
	return c, server
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, _ := setupRedisCache(t)

	_, found := c.Get("quality:latest")
	assert.False(t, found)

	c.Set("quality:latest", testSnapshot(), time.Minute)

	got, found := c.Get("quality:latest")
	require.True(t, found)
	assert.Equal(t, "2026-08-14T06:30:00Z", got.GeneratedAt)

	c.Delete("quality:latest")
	_, found = c.Get("quality:latest")
	assert.False(t, found)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	c, server := setupRedisCache(t)

	c.Set("quality:latest", testSnapshot(), time.Minute)
	server.FastForward(2 * time.Minute)

	_, found := c.Get("quality:latest")
	assert.False(t, found)
}

func TestRedisCache_ConnectionFailure(t *testing.T) {
	_, err := NewRedisCache(&RedisCacheConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestRedisCache_Clear(t *testing.T) {
	c, _ := setupRedisCache(t)

	c.Set("a", testSnapshot(), time.Minute)
	c.Set("b", testSnapshot(), time.Minute)
	c.Clear()

	_, foundA := c.Get("a")
	_, foundB := c.Get("b")
	assert.False(t, foundA)
	assert.False(t, foundB)
}
