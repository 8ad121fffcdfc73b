package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "/polls")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "/polls", []byte(`{"polls":[]}`), 0))

	v, ok, err := c.Get(ctx, "/polls")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"polls":[]}`, string(v))
}

func TestMemory_InvalidateByPrefix(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "/polls", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "/polls?limit=5", []byte("b"), 0))
	require.NoError(t, c.Set(ctx, "/other", []byte("c"), 0))

	require.NoError(t, c.Invalidate(ctx, "/polls"))

	require.Equal(t, 1, c.Len())
	_, ok, _ := c.Get(ctx, "/other")
	require.True(t, ok)
}

func TestMemory_TTL(t *testing.T) {
	c := NewMemory(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "/polls", []byte("a"), 0))

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok, err := c.Get(ctx, "/polls")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestMemory_ZeroTTLUsesDefault(t *testing.T) {
	c := NewMemory(0)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "/polls", []byte("a"), 0))

	c.now = func() time.Time { return now.Add(DefaultTTL + time.Second) }
	_, ok, err := c.Get(ctx, "/polls")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_SetSweepsExpired(t *testing.T) {
	c := NewMemory(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "/polls?limit=1&offset=0", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "/polls?limit=2&offset=0", []byte("b"), 0))

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	require.NoError(t, c.Set(ctx, "/polls?limit=3&offset=0", []byte("c"), 0))
	require.Equal(t, 1, c.Len())
}

// Ответ из БД, прочитанный до инвалидации, в кэш попасть не должен
func TestMemory_SetSkippedAfterInvalidate(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	v, err := c.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, "/polls"))
	require.NoError(t, c.Set(ctx, "/polls?limit=20&offset=0", []byte("stale"), v))

	_, ok, err := c.Get(ctx, "/polls?limit=20&offset=0")
	require.NoError(t, err)
	require.False(t, ok)

	fresh, err := c.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, v+1, fresh)
	require.NoError(t, c.Set(ctx, "/polls?limit=20&offset=0", []byte("fresh"), fresh))
	got, ok, _ := c.Get(ctx, "/polls?limit=20&offset=0")
	require.True(t, ok)
	require.Equal(t, "fresh", string(got))
}

func TestMemory_SetCopiesValue(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	v, _, _ := c.Get(ctx, "k")
	require.Equal(t, "abc", string(v))
}

func TestNop(t *testing.T) {
	var c ListingCache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, "k"))
}

// Интеграционный тест с настоящим redis
func TestRedis_RoundTripAndInvalidate(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping integration test")
	}
	ctx := context.Background()

	c, err := NewRedis(ctx, RedisOptions{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ver, err := c.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "/polls?limit=1", []byte("x"), ver))
	v, ok, err := c.Get(ctx, "/polls?limit=1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", string(v))

	require.NoError(t, c.Invalidate(ctx, "/polls"))
	_, ok, err = c.Get(ctx, "/polls?limit=1")
	require.NoError(t, err)
	require.False(t, ok)

	// запись со старой версией пропускается
	require.NoError(t, c.Set(ctx, "/polls?limit=1", []byte("stale"), ver))
	_, ok, err = c.Get(ctx, "/polls?limit=1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
