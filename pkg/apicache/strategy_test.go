package apicache_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upstream/pkg/apicache"
	"github.com/dmitrymomot/upstream/pkg/cache"
)

func newStrategy(t *testing.T, opts ...apicache.Option) (*apicache.Strategy, *cache.Memory) {
	t.Helper()

	store := cache.NewMemory(cache.WithSweepInterval(0))
	t.Cleanup(func() { _ = store.Close() })

	return apicache.New(store, opts...), store
}

func TestStrategy_EntityCaching(t *testing.T) {
	t.Parallel()

	t.Run("round-trips an entity", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		require.NoError(t, s.CacheEntity(ctx, "client", "5", map[string]string{"name": "Acme"}))

		v, err := s.Entity(ctx, "client", "5")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"name": "Acme"}, v)
	})

	t.Run("uses the configured entity TTL", func(t *testing.T) {
		t.Parallel()

		s, store := newStrategy(t, apicache.WithResourceTTL("client", 20*time.Millisecond, time.Minute))
		ctx := context.Background()

		require.NoError(t, s.CacheEntity(ctx, "client", "5", "Acme"))
		time.Sleep(40 * time.Millisecond)

		_, err := s.Entity(ctx, "client", "5")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Zero(t, store.Stats().Size)
	})
}

func TestStrategy_ListCaching(t *testing.T) {
	t.Parallel()

	t.Run("filter key is order-independent", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		require.NoError(t, s.CacheList(ctx, "client", map[string]any{"status": "active", "page": 2}, []string{"a"}))

		// Same filter, different construction order: must hit.
		v, err := s.List(ctx, "client", map[string]any{"page": 2, "status": "active"})
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, v)
	})

	t.Run("different filters get different entries", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		require.NoError(t, s.CacheList(ctx, "client", map[string]any{"page": 1}, "page one"))
		require.NoError(t, s.CacheList(ctx, "client", map[string]any{"page": 2}, "page two"))

		v, err := s.List(ctx, "client", map[string]any{"page": 1})
		require.NoError(t, err)
		require.Equal(t, "page one", v)

		v, err = s.List(ctx, "client", map[string]any{"page": 2})
		require.NoError(t, err)
		require.Equal(t, "page two", v)
	})

	t.Run("nil filter is a stable key", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		require.NoError(t, s.CacheList(ctx, "client", nil, "everything"))

		v, err := s.List(ctx, "client", map[string]any{})
		require.NoError(t, err)
		require.Equal(t, "everything", v)
	})
}

func TestStrategy_Invalidate(t *testing.T) {
	t.Parallel()

	t.Run("clears entity and every list, leaves other resources alone", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		require.NoError(t, s.CacheEntity(ctx, "client", "5", "Acme"))
		require.NoError(t, s.CacheList(ctx, "client", map[string]any{"page": 1}, "p1"))
		require.NoError(t, s.CacheList(ctx, "client", map[string]any{"page": 2}, "p2"))
		require.NoError(t, s.CacheEntity(ctx, "invoice", "9", "inv"))
		require.NoError(t, s.CacheList(ctx, "invoice", map[string]any{"page": 1}, "invp1"))

		removed, err := s.Invalidate(ctx, "client", "5")
		require.NoError(t, err)
		require.Len(t, removed, 3)
		require.Contains(t, removed, "client:5")

		_, err = s.Entity(ctx, "client", "5")
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = s.List(ctx, "client", map[string]any{"page": 1})
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = s.List(ctx, "client", map[string]any{"page": 2})
		require.ErrorIs(t, err, cache.ErrNotFound)

		// Unrelated namespaces untouched.
		v, err := s.Entity(ctx, "invoice", "9")
		require.NoError(t, err)
		require.Equal(t, "inv", v)
		v, err = s.List(ctx, "invoice", map[string]any{"page": 1})
		require.NoError(t, err)
		require.Equal(t, "invp1", v)
	})

	t.Run("invalidating an uncached entity still clears lists", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		require.NoError(t, s.CacheList(ctx, "client", map[string]any{"page": 1}, "p1"))

		removed, err := s.Invalidate(ctx, "client", "5")
		require.NoError(t, err)
		require.Len(t, removed, 1)
		require.True(t, strings.HasPrefix(removed[0], "client:list:"))
	})
}

func TestStrategy_InvalidateChildren(t *testing.T) {
	t.Parallel()

	s, _ := newStrategy(t)
	ctx := context.Background()

	// Invoices keyed "<clientID>:<invoiceID>" under their parent.
	require.NoError(t, s.CacheEntity(ctx, "invoice", "5:100", "inv100"))
	require.NoError(t, s.CacheEntity(ctx, "invoice", "5:101", "inv101"))
	require.NoError(t, s.CacheEntity(ctx, "invoice", "7:200", "inv200"))

	removed, err := s.InvalidateChildren(ctx, "invoice", "5")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"invoice:5:100", "invoice:5:101"}, removed)

	_, err = s.Entity(ctx, "invoice", "5:100")
	require.ErrorIs(t, err, cache.ErrNotFound)

	// Another parent's children survive.
	v, err := s.Entity(ctx, "invoice", "7:200")
	require.NoError(t, err)
	require.Equal(t, "inv200", v)
}

func TestStrategy_GetOrFetch(t *testing.T) {
	t.Parallel()

	t.Run("fetch runs on miss only", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t)
		ctx := context.Background()

		var calls atomic.Int64
		fetch := func(ctx context.Context) (any, error) {
			calls.Add(1)
			return "fetched", nil
		}

		v, err := s.GetOrFetch(ctx, "client", "5", time.Minute, fetch)
		require.NoError(t, err)
		require.Equal(t, "fetched", v)

		v, err = s.GetOrFetch(ctx, "client", "5", time.Minute, fetch)
		require.NoError(t, err)
		require.Equal(t, "fetched", v)
		require.EqualValues(t, 1, calls.Load(), "fetch must not run on a hit")
	})

	t.Run("FetchEntity applies the configured TTL", func(t *testing.T) {
		t.Parallel()

		s, _ := newStrategy(t, apicache.WithResourceTTL("client", 20*time.Millisecond, time.Minute))
		ctx := context.Background()

		var calls atomic.Int64
		fetch := func(ctx context.Context) (any, error) {
			calls.Add(1)
			return "fetched", nil
		}

		_, err := s.FetchEntity(ctx, "client", "5", fetch)
		require.NoError(t, err)

		time.Sleep(40 * time.Millisecond)

		_, err = s.FetchEntity(ctx, "client", "5", fetch)
		require.NoError(t, err)
		require.EqualValues(t, 2, calls.Load(), "expired entry must be refetched")
	})

	t.Run("typed Fetch converts cached values", func(t *testing.T) {
		t.Parallel()

		type client struct {
			Name string `json:"name"`
		}

		s, _ := newStrategy(t)
		ctx := context.Background()

		v, err := apicache.Fetch(ctx, s, "client", "5", time.Minute, func(ctx context.Context) (client, error) {
			return client{Name: "Acme"}, nil
		})
		require.NoError(t, err)
		require.Equal(t, "Acme", v.Name)

		v, err = apicache.Fetch(ctx, s, "client", "5", time.Minute, func(ctx context.Context) (client, error) {
			t.Fatal("fetch must not run on a hit")
			return client{}, nil
		})
		require.NoError(t, err)
		require.Equal(t, "Acme", v.Name)
	})
}
