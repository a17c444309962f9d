//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upstream/pkg/cache"
	"github.com/dmitrymomot/upstream/pkg/redis"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() {
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})

	return client
}

func TestRedisStore_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-miss"))

		_, err := s.Get(context.Background(), "client", "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("round-trips through JSON", func(t *testing.T) {
		t.Parallel()

		s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-roundtrip"))

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "client", "5", map[string]any{"name": "Acme"}, time.Minute))

		v, err := s.Get(ctx, "client", "5")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "Acme"}, v)

		type client struct {
			Name string `json:"name"`
		}
		typed, err := cache.As[client](v)
		require.NoError(t, err)
		require.Equal(t, "Acme", typed.Name)
	})

	t.Run("expires with native TTL", func(t *testing.T) {
		t.Parallel()

		s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-ttl"))

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "client", "5", "Acme", 50*time.Millisecond))

		time.Sleep(100 * time.Millisecond)

		_, err := s.Get(ctx, "client", "5")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestRedisStore_Namespaces(t *testing.T) {
	t.Parallel()

	t.Run("clear removes one namespace only", func(t *testing.T) {
		t.Parallel()

		s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-clear"))

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "client:list", "f:aaa", []string{"a"}, time.Minute))
		require.NoError(t, s.Set(ctx, "client:list", "f:bbb", []string{"b"}, time.Minute))
		require.NoError(t, s.Set(ctx, "invoice", "1", "inv", time.Minute))

		require.NoError(t, s.Clear(ctx, "client:list"))

		keys, err := s.Keys(ctx, "client:list")
		require.NoError(t, err)
		require.Empty(t, keys)

		has, err := s.Has(ctx, "invoice", "1")
		require.NoError(t, err)
		require.True(t, has)
	})

	t.Run("keys lists original key forms", func(t *testing.T) {
		t.Parallel()

		s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-keys"))

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "invoice", "5:100", 1, time.Minute))
		require.NoError(t, s.Set(ctx, "invoice", "5:101", 2, time.Minute))

		keys, err := s.Keys(ctx, "invoice")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"5:100", "5:101"}, keys)
	})
}

func TestRedisStore_Touch(t *testing.T) {
	t.Parallel()

	s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-touch"))

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "client", "5", "Acme", 50*time.Millisecond))

	ok, err := s.Touch(ctx, "client", "5", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	has, err := s.Has(ctx, "client", "5")
	require.NoError(t, err)
	require.True(t, has, "touched entry must outlive its original TTL")

	ok, err = s.Touch(ctx, "client", "missing", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStore_GetOrSet(t *testing.T) {
	t.Parallel()

	s := cache.NewRedis(newTestRedisClient(t), cache.WithPrefix("t-getorset"))

	ctx := context.Background()
	calls := 0
	factory := func(ctx context.Context) (any, error) {
		calls++
		return "computed", nil
	}

	v, err := s.GetOrSet(ctx, "client", "5", time.Minute, factory)
	require.NoError(t, err)
	require.Equal(t, "computed", v)

	v, err = s.GetOrSet(ctx, "client", "5", time.Minute, factory)
	require.NoError(t, err)
	require.Equal(t, "computed", v)
	require.Equal(t, 1, calls)
}
