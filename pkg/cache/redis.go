package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Redis is a Store backed by a Redis server. Values are serialized as
// JSON, so reads return generic decoded values (map[string]any for
// objects); use As to recover concrete types.
//
// Expiry is native Redis TTL. Capacity eviction is delegated to the
// server's maxmemory policy, so the Evictions counter stays zero and
// Size is unknown (-1) when a key prefix is configured.
type Redis struct {
	client redis.UniversalClient
	opts   *redisOptions
	sf     singleflight.Group

	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
}

// NewRedis creates a Redis-backed store. The client should come from
// pkg/redis.Open or pkg/redis.MustOpen; its lifecycle stays with the
// caller.
//
// Example:
//
//	client := redisconn.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	s := cache.NewRedis(client,
//	    cache.WithPrefix("upstream"),
//	    cache.WithRedisDefaultTTL(30*time.Minute),
//	)
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Redis{client: client, opts: o}
}

// Set stores a JSON-serialized value with the given TTL.
func (r *Redis) Set(ctx context.Context, ns, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}

	if ttl == 0 {
		ttl = r.opts.defaultTTL
	}
	// Redis reads 0 as "no expiration", which is our negative-TTL
	// semantic.
	redisTTL := max(ttl, 0)

	if err := r.client.Set(ctx, r.fullKey(ns, key), data, redisTTL).Err(); err != nil {
		return err
	}
	r.sets.Add(1)
	return nil
}

// Get retrieves and decodes a value. Returns ErrNotFound on a miss;
// expiry is handled natively by Redis.
func (r *Redis) Get(ctx context.Context, ns, key string) (any, error) {
	data, err := r.client.Get(ctx, r.fullKey(ns, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.misses.Add(1)
			return nil, ErrNotFound
		}
		return nil, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	r.hits.Add(1)
	return v, nil
}

// Has checks whether a key exists.
func (r *Redis) Has(ctx context.Context, ns, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.fullKey(ns, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a key.
func (r *Redis) Delete(ctx context.Context, ns, key string) error {
	n, err := r.client.Del(ctx, r.fullKey(ns, key)).Result()
	if err != nil {
		return err
	}
	r.deletes.Add(uint64(n))
	return nil
}

// Clear removes every entry in the namespace using SCAN. With the
// empty namespace it removes all prefixed keys, or flushes the
// database when no prefix is configured.
func (r *Redis) Clear(ctx context.Context, ns string) error {
	if ns == "" && r.opts.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	pattern := r.fullKey(ns, "*")
	return r.scan(ctx, pattern, func(keys []string) error {
		n, err := r.client.Del(ctx, keys...).Result()
		if err != nil {
			return err
		}
		r.deletes.Add(uint64(n))
		return nil
	})
}

// Touch refreshes a key's expiry. A negative TTL removes the expiry.
// Returns false when the key does not exist.
func (r *Redis) Touch(ctx context.Context, ns, key string, ttl time.Duration) (bool, error) {
	if ttl == 0 {
		ttl = r.opts.defaultTTL
	}
	if ttl < 0 {
		return r.client.Persist(ctx, r.fullKey(ns, key)).Result()
	}
	return r.client.Expire(ctx, r.fullKey(ns, key), ttl).Result()
}

// Keys lists keys in the namespace via SCAN, stripped back to their
// original form. With the empty namespace composite "namespace:key"
// forms are returned. O(keys scanned), like every SCAN walk.
func (r *Redis) Keys(ctx context.Context, ns string) ([]string, error) {
	pattern := r.fullKey(ns, "*")
	strip := strings.TrimSuffix(pattern, "*")

	var keys []string
	err := r.scan(ctx, pattern, func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, strip))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// GetOrSet returns the cached value or computes it via factory.
// Concurrent misses within this process are coalesced; across
// processes the factory may still run more than once (no distributed
// locking).
func (r *Redis) GetOrSet(ctx context.Context, ns, key string, ttl time.Duration, factory func(ctx context.Context) (any, error)) (any, error) {
	if v, err := r.Get(ctx, ns, key); err == nil {
		return v, nil
	}

	v, err, _ := r.sf.Do(r.fullKey(ns, key), func() (any, error) {
		val, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.Set(ctx, ns, key, val, ttl); err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Stats returns client-observed counters. Size is the server DBSIZE
// when no prefix is configured, otherwise -1 (counting prefixed keys
// would require a full SCAN).
func (r *Redis) Stats() Stats {
	hits, misses := r.hits.Load(), r.misses.Load()

	size := -1
	if r.opts.prefix == "" {
		if n, err := r.client.DBSize(context.Background()).Result(); err == nil {
			size = int(n)
		}
	}

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    r.sets.Load(),
		Deletes: r.deletes.Load(),
		Size:    size,
		HitRate: hitRate(hits, misses),
	}
}

// Close is a no-op; the Redis client lifecycle belongs to the caller.
func (r *Redis) Close() error { return nil }

// fullKey builds the stored key: [prefix:]namespace:key.
func (r *Redis) fullKey(ns, key string) string {
	ck := compositeKey(ns, key)
	if r.opts.prefix == "" {
		return ck
	}
	return r.opts.prefix + ":" + ck
}

// scan walks keys matching pattern in batches. SCAN does not block the
// server, which makes it safe for production datasets.
func (r *Redis) scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ Store = (*Redis)(nil)
