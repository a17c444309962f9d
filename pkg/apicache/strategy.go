package apicache

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrymomot/upstream/pkg/cache"
)

// Strategy maps logical resources onto cache namespaces and keys, and
// encodes the invalidation fan-out rules. It is built entirely from
// Store primitives and knows nothing about HTTP.
type Strategy struct {
	store cache.Store
	cfg   Config
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithConfig sets the whole TTL configuration, typically from
// LoadConfig.
func WithConfig(cfg Config) Option {
	return func(s *Strategy) {
		s.cfg = cfg
	}
}

// WithDefaultTTL sets the TTL used for resources without an explicit
// entry. Default: 5 minutes.
func WithDefaultTTL(d time.Duration) Option {
	return func(s *Strategy) {
		s.cfg.DefaultTTL = Duration(d)
	}
}

// WithResourceTTL sets the entity and list TTLs of one resource type.
func WithResourceTTL(resource string, entity, list time.Duration) Option {
	return func(s *Strategy) {
		if s.cfg.Resources == nil {
			s.cfg.Resources = make(map[string]ResourceTTL)
		}
		s.cfg.Resources[resource] = ResourceTTL{Entity: Duration(entity), List: Duration(list)}
	}
}

// New creates a Strategy over the given store.
//
// Example:
//
//	s := apicache.New(store,
//	    apicache.WithDefaultTTL(5*time.Minute),
//	    apicache.WithResourceTTL("client", 30*time.Minute, 90*time.Second),
//	)
func New(store cache.Store, opts ...Option) *Strategy {
	s := &Strategy{
		store: store,
		cfg:   Config{DefaultTTL: Duration(5 * time.Minute)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheEntity stores a single entity under "<resource>:<id>" with the
// resource's entity TTL.
func (s *Strategy) CacheEntity(ctx context.Context, resource, id string, v any) error {
	ns, key := EntityKey(resource, id)
	return s.store.Set(ctx, ns, key, v, s.cfg.entityTTL(resource))
}

// Entity retrieves a cached entity. Returns cache.ErrNotFound on a
// miss.
func (s *Strategy) Entity(ctx context.Context, resource, id string) (any, error) {
	ns, key := EntityKey(resource, id)
	return s.store.Get(ctx, ns, key)
}

// CacheList stores a filtered listing under the resource's list
// namespace, keyed by the order-independent filter token.
func (s *Strategy) CacheList(ctx context.Context, resource string, filter map[string]any, v any) error {
	key, err := ListKey(filter)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, ListNamespace(resource), key, v, s.cfg.listTTL(resource))
}

// List retrieves a cached filtered listing.
func (s *Strategy) List(ctx context.Context, resource string, filter map[string]any) (any, error) {
	key, err := ListKey(filter)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, ListNamespace(resource), key)
}

// Invalidate removes an entity's own key and clears the resource's
// entire list namespace, returning the removed composite keys.
//
// Clearing every cached list is deliberate over-invalidation: one
// mutation can change the membership or ordering of arbitrarily many
// filtered lists, and serving a stale list is worse than refetching
// one. Store errors propagate so an invalidation failure is never
// silently swallowed.
func (s *Strategy) Invalidate(ctx context.Context, resource, id string) ([]string, error) {
	var removed []string

	ns, key := EntityKey(resource, id)
	has, err := s.store.Has(ctx, ns, key)
	if err != nil {
		return nil, err
	}
	if has {
		if err := s.store.Delete(ctx, ns, key); err != nil {
			return nil, err
		}
		removed = append(removed, ns+":"+key)
	}

	listNS := ListNamespace(resource)
	listKeys, err := s.store.Keys(ctx, listNS)
	if err != nil {
		return removed, err
	}
	if err := s.store.Clear(ctx, listNS); err != nil {
		return removed, err
	}
	for _, k := range listKeys {
		removed = append(removed, listNS+":"+k)
	}

	return removed, nil
}

// InvalidateChildren removes every entry in the resource's namespace
// whose key belongs to the given parent, using the "<parentID>:..."
// key convention. The store has no secondary index, so this enumerates
// the namespace and filters by prefix: O(namespace size).
func (s *Strategy) InvalidateChildren(ctx context.Context, resource, parentID string) ([]string, error) {
	keys, err := s.store.Keys(ctx, resource)
	if err != nil {
		return nil, err
	}

	prefix := parentID + ":"
	var removed []string
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if err := s.store.Delete(ctx, resource, k); err != nil {
			return removed, err
		}
		removed = append(removed, resource+":"+k)
	}
	return removed, nil
}

// GetOrFetch returns the cached value under (ns, key) or invokes
// fetch to produce and cache it. On a hit the fetch function is never
// invoked; concurrent misses on the same key are coalesced.
func (s *Strategy) GetOrFetch(ctx context.Context, ns, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (any, error) {
	return s.store.GetOrSet(ctx, ns, key, ttl, fetch)
}

// FetchEntity is GetOrFetch wired to the entity key and TTL of a
// resource type.
func (s *Strategy) FetchEntity(ctx context.Context, resource, id string, fetch func(ctx context.Context) (any, error)) (any, error) {
	ns, key := EntityKey(resource, id)
	return s.store.GetOrSet(ctx, ns, key, s.cfg.entityTTL(resource), fetch)
}

// FetchList is GetOrFetch wired to the list key and TTL of a resource
// type.
func (s *Strategy) FetchList(ctx context.Context, resource string, filter map[string]any, fetch func(ctx context.Context) (any, error)) (any, error) {
	key, err := ListKey(filter)
	if err != nil {
		return nil, err
	}
	return s.store.GetOrSet(ctx, ListNamespace(resource), key, s.cfg.listTTL(resource), fetch)
}

// Fetch is a typed GetOrFetch: the fetch callback returns T and cached
// values are converted back to T with cache.As.
func Fetch[T any](ctx context.Context, s *Strategy, ns, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := s.GetOrFetch(ctx, ns, key, ttl, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return cache.As[T](v)
}
