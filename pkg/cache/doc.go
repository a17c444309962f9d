// Package cache provides a namespaced, TTL-governed key-value store
// with in-memory and Redis implementations.
//
// # Store interface
//
// Both backends implement [Store]:
//
//   - Set / Get / Has / Delete — single-entry operations
//   - Clear(ns) — bulk removal of a namespace ("" clears everything)
//   - Touch — extend an entry's expiry without rewriting it
//   - Keys(ns) — enumerate a namespace
//   - GetOrSet — read-through with per-key coalescing
//   - Stats — hit/miss/set/delete/eviction counters and a size gauge
//
// TTL semantics for Set and Touch:
//   - Positive duration: entry expires after this duration
//   - Zero: use the store's configured default TTL
//   - Negative: entry never expires
//
// # In-memory store
//
// [NewMemory] creates a bounded store with a pluggable eviction
// policy:
//
//	s := cache.NewMemory(
//	    cache.WithDefaultTTL(5*time.Minute),
//	    cache.WithMaxEntries(10000),
//	    cache.WithEvictor(cache.LRU()),
//	    cache.WithSweepInterval(30*time.Second),
//	)
//	_ = s.Start()
//	defer s.Close()
//
// When an insert would exceed MaxEntries, the [Evictor] picks exactly
// one victim: [LRU] (oldest last access), [LFU] (lowest access count,
// ties broken by oldest insertion), or [SoonestExpiry] (earliest
// expiry wins regardless of access pattern).
//
// Expired entries are purged lazily on read. The background sweeper,
// started explicitly with [Memory.Start], only bounds the memory held
// by dead entries between reads; correctness never depends on it, and
// a zero sweep interval disables it. [Memory.DeleteExpired] runs one
// sweep synchronously for deterministic tests.
//
// # Redis store
//
// [NewRedis] offers the same interface over Redis for processes that
// want a shared or restart-surviving cache. Namespace operations walk
// the keyspace with SCAN; capacity eviction is the server's maxmemory
// policy.
//
// Redis values round-trip through JSON, so Get returns generic decoded
// values. [As] recovers a concrete type from either backend:
//
//	v, err := s.Get(ctx, "client", "5")
//	client, err := cache.As[Client](v)
//
// # Stampede control
//
// GetOrSet coalesces concurrent misses on the same key with
// singleflight: the factory runs once per flight and every caller gets
// its result. A factory error propagates unchanged and poisons
// nothing. The Redis store coalesces within the process only.
package cache
