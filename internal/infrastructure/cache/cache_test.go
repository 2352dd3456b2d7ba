package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	l := NewLocal[int](time.Minute)
	defer l.Close()

	now := time.Now()
	l.now = func() time.Time { return now }

	l.Set("a", 1)
	v, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = l.Get("missing")
	assert.False(t, ok)

	t.Run("entries expire", func(t *testing.T) {
		l.SetWithTTL("short", 2, time.Second)
		l.now = func() time.Time { return now.Add(2 * time.Second) }
		_, ok := l.Get("short")
		assert.False(t, ok)

		l.evictExpired()
		_, present := l.items["short"]
		assert.False(t, present)
		l.now = func() time.Time { return now }
	})

	t.Run("delete removes entries", func(t *testing.T) {
		l.Delete("a")
		_, ok := l.Get("a")
		assert.False(t, ok)
	})

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	value := []byte("hello")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'j'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got), "stored values are copied")

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "x", Count: 3}, time.Minute))

	var out payload
	require.NoError(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, payload{Name: "x", Count: 3}, out)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	assert.Error(t, GetJSON(ctx, c, "bad", &out))
	assert.ErrorIs(t, GetJSON(ctx, c, "none", &out), ErrMiss)
}

func TestFactory(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		c := NewFactory().Create(BackendMemory, "x:")
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("redis backend without a client falls back to memory", func(t *testing.T) {
		c := NewFactory().Create(BackendRedis, "x:")
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("redis backend with a client", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		defer client.Close()
		c := NewFactory(WithRedis(client)).Create(BackendRedis, "x:")
		assert.IsType(t, &RedisCache{}, c)
	})
}

func TestRedisCache_ReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()
	c := NewRedisCache(client, "test:")

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
