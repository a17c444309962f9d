package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Store is a namespaced key-value cache with per-entry TTL.
//
// Namespaces partition the key space so related entries can be listed
// and invalidated in bulk. The empty namespace is the root namespace.
// Keys are unique within a namespace; the composite form is
// "namespace:key".
//
// TTL semantics for Set and Touch:
//   - Positive duration: entry expires after this duration
//   - Zero: use the store's configured default TTL
//   - Negative: entry never expires
type Store interface {
	// Set stores a value under (ns, key) with the given TTL.
	Set(ctx context.Context, ns, key string, value any, ttl time.Duration) error

	// Get retrieves a value. Returns ErrNotFound if the key does not
	// exist or has expired; an expired entry is purged on read.
	Get(ctx context.Context, ns, key string) (any, error)

	// Has checks existence without returning the value.
	Has(ctx context.Context, ns, key string) (bool, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, ns, key string) error

	// Clear removes every entry in the namespace. The empty namespace
	// clears the entire store.
	Clear(ctx context.Context, ns string) error

	// Touch refreshes an entry's expiry without altering its value.
	// Returns false if the key is absent or already expired.
	Touch(ctx context.Context, ns, key string, ttl time.Duration) (bool, error)

	// Keys lists the keys stored in the namespace. With the empty
	// namespace it lists composite "namespace:key" forms for the whole
	// store.
	Keys(ctx context.Context, ns string) ([]string, error)

	// GetOrSet returns the cached value for (ns, key), or invokes
	// factory to compute and cache it. Concurrent calls for the same
	// key are coalesced; the factory runs once. A factory error
	// propagates unchanged and nothing is cached.
	GetOrSet(ctx context.Context, ns, key string, ttl time.Duration, factory func(ctx context.Context) (any, error)) (any, error)

	// Stats returns a snapshot of the store counters.
	Stats() Stats

	// Close releases resources (stops background goroutines, etc.).
	Close() error
}

// Stats is a snapshot of store counters. Counters are monotonic for
// the lifetime of the store; Size is the current entry count.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Deletes   uint64
	Evictions uint64
	Expired   uint64
	Size      int
	HitRate   float64
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// compositeKey joins a namespace and key into the store's canonical
// key form. The root namespace maps to the bare key.
func compositeKey(ns, key string) string {
	if ns == "" {
		return key
	}
	return ns + ":" + key
}

// As converts a cached value to T. A direct type assertion covers the
// in-memory store; for serializing backends (Redis) the value comes
// back as decoded JSON, so As falls back to a JSON round-trip into T.
func As[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}

	var t T
	data, err := json.Marshal(v)
	if err != nil {
		return t, errors.Join(ErrUnmarshal, err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, errors.Join(ErrUnmarshal, err)
	}
	return t, nil
}
