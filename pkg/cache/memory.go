package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/upstream/pkg/logger"
)

// memEntry holds a cached value with its bookkeeping. The value is
// immutable after write except for expiresAt, which Touch may extend.
type memEntry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time // zero value = never expires
	namespace string
	key       string // original key, without the namespace prefix
	seq       uint64
}

// isExpired reports whether the entry has passed its expiration time.
func (e *memEntry) isExpired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return now.After(e.expiresAt)
}

// Memory is a bounded in-memory Store with a pluggable eviction policy
// and an optional background sweeper.
//
// The index and the per-key access-time and access-count maps are
// always updated together under one mutex: every indexed key has both
// bookkeeping entries. The sweeper is an optimization only; Get and
// Has detect and purge expired entries on their own.
type Memory struct {
	mu           sync.Mutex
	entries      map[string]*memEntry
	accessTimes  map[string]time.Time
	accessCounts map[string]uint64
	seq          uint64

	hits      uint64
	misses    uint64
	sets      uint64
	deletes   uint64
	evictions uint64
	expired   uint64

	sf   singleflight.Group
	opts *memoryOptions
	log  *slog.Logger

	done    chan struct{}
	started bool
	closed  bool
}

// NewMemory creates an in-memory store. The background sweeper is not
// started here; call Start explicitly so tests and owners control its
// lifecycle.
//
// Example:
//
//	s := cache.NewMemory(
//	    cache.WithDefaultTTL(5*time.Minute),
//	    cache.WithMaxEntries(10000),
//	    cache.WithEvictor(cache.LFU()),
//	)
//	_ = s.Start()
//	defer s.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = logger.NewNope()
	}

	return &Memory{
		entries:      make(map[string]*memEntry),
		accessTimes:  make(map[string]time.Time),
		accessCounts: make(map[string]uint64),
		opts:         o,
		log:          log,
		done:         make(chan struct{}),
	}
}

// Start launches the background sweeper. It is a no-op when the sweep
// interval is zero or the sweeper is already running.
func (m *Memory) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.started || m.opts.sweepInterval <= 0 {
		return nil
	}
	m.started = true
	go m.sweeper()
	return nil
}

// Close stops the sweeper and marks the store closed. Close is
// idempotent. Reads keep working on a closed store; writes fail with
// ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// Get retrieves a value. An entry past its expiry is treated as absent
// and removed, whether or not the sweeper has run.
func (m *Memory) Get(_ context.Context, ns, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ns, key, true)
}

// getLocked is the shared lookup. Caller must hold the mutex.
// With record=false it neither touches counters nor access bookkeeping
// (used for the re-check inside GetOrSet).
func (m *Memory) getLocked(ns, key string, record bool) (any, error) {
	ck := compositeKey(ns, key)
	e, ok := m.entries[ck]
	if !ok {
		if record {
			m.misses++
		}
		return nil, ErrNotFound
	}

	if e.isExpired(time.Now()) {
		m.removeLocked(ck)
		m.expired++
		if record {
			m.misses++
		}
		return nil, ErrNotFound
	}

	if record {
		m.hits++
		m.accessTimes[ck] = time.Now()
		m.accessCounts[ck]++
	}
	return e.value, nil
}

// Set stores a value. Inserting into a full store evicts exactly one
// entry, chosen by the configured Evictor, before the insert.
func (m *Memory) Set(_ context.Context, ns, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	now := time.Now()
	ck := compositeKey(ns, key)
	m.sets++

	// Overwrite keeps the access history of the existing entry.
	if e, ok := m.entries[ck]; ok {
		e.value = value
		e.expiresAt = m.expiryFor(now, ttl)
		m.accessTimes[ck] = now
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.entries) >= m.opts.maxEntries {
		m.evictOneLocked()
	}

	m.seq++
	m.entries[ck] = &memEntry{
		value:     value,
		createdAt: now,
		expiresAt: m.expiryFor(now, ttl),
		namespace: ns,
		key:       key,
		seq:       m.seq,
	}
	m.accessTimes[ck] = now
	m.accessCounts[ck] = 0
	return nil
}

// Has checks existence, purging the entry if it has expired.
func (m *Memory) Has(_ context.Context, ns, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ck := compositeKey(ns, key)
	e, ok := m.entries[ck]
	if !ok {
		return false, nil
	}
	if e.isExpired(time.Now()) {
		m.removeLocked(ck)
		m.expired++
		return false, nil
	}
	return true, nil
}

// Delete removes a key. Removing an absent key is not an error and is
// not counted.
func (m *Memory) Delete(_ context.Context, ns, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	ck := compositeKey(ns, key)
	if _, ok := m.entries[ck]; ok {
		m.removeLocked(ck)
		m.deletes++
	}
	return nil
}

// Clear removes every entry in the namespace; the empty namespace
// clears the whole store.
func (m *Memory) Clear(_ context.Context, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ns == "" {
		m.deletes += uint64(len(m.entries))
		m.entries = make(map[string]*memEntry)
		m.accessTimes = make(map[string]time.Time)
		m.accessCounts = make(map[string]uint64)
		return nil
	}

	for ck, e := range m.entries {
		if e.namespace == ns {
			m.removeLocked(ck)
			m.deletes++
		}
	}
	return nil
}

// Touch refreshes an entry's expiry without changing its value. The
// touch itself counts as an access. Returns false when the key is
// absent or already expired.
func (m *Memory) Touch(_ context.Context, ns, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}

	now := time.Now()
	ck := compositeKey(ns, key)
	e, ok := m.entries[ck]
	if !ok {
		return false, nil
	}
	if e.isExpired(now) {
		m.removeLocked(ck)
		m.expired++
		return false, nil
	}

	e.expiresAt = m.expiryFor(now, ttl)
	m.accessTimes[ck] = now
	m.accessCounts[ck]++
	return true, nil
}

// Keys lists keys in the namespace. Expired entries are skipped but
// left for the sweeper or a later read to purge. With the empty
// namespace every live entry is returned in composite form.
func (m *Memory) Keys(_ context.Context, ns string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	keys := make([]string, 0, len(m.entries))
	for ck, e := range m.entries {
		if e.isExpired(now) {
			continue
		}
		if ns == "" {
			keys = append(keys, ck)
		} else if e.namespace == ns {
			keys = append(keys, e.key)
		}
	}
	return keys, nil
}

// GetOrSet returns the cached value or computes it via factory.
// Concurrent misses on the same key are coalesced with singleflight so
// the factory runs once; a factory error propagates unchanged and the
// cache is left untouched.
func (m *Memory) GetOrSet(ctx context.Context, ns, key string, ttl time.Duration, factory func(ctx context.Context) (any, error)) (any, error) {
	m.mu.Lock()
	v, err := m.getLocked(ns, key, true)
	m.mu.Unlock()
	if err == nil {
		return v, nil
	}

	ck := compositeKey(ns, key)
	v, err, _ = m.sf.Do(ck, func() (any, error) {
		// Another flight may have filled the entry between the miss
		// above and acquiring the flight.
		m.mu.Lock()
		cached, lookupErr := m.getLocked(ns, key, false)
		m.mu.Unlock()
		if lookupErr == nil {
			return cached, nil
		}

		val, factoryErr := factory(ctx)
		if factoryErr != nil {
			return nil, factoryErr
		}
		if setErr := m.Set(ctx, ns, key, val, ttl); setErr != nil {
			return nil, setErr
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Stats returns a snapshot of the store counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		Sets:      m.sets,
		Deletes:   m.deletes,
		Evictions: m.evictions,
		Expired:   m.expired,
		Size:      len(m.entries),
		HitRate:   hitRate(m.hits, m.misses),
	}
}

// DeleteExpired removes every entry whose expiry has passed and
// returns the number removed. The background sweeper calls this on its
// interval; tests call it directly for deterministic timing.
func (m *Memory) DeleteExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for ck, e := range m.entries {
		if e.isExpired(now) {
			m.removeLocked(ck)
			removed++
		}
	}
	m.expired += uint64(removed)
	return removed
}

// sweeper periodically removes expired entries until Close.
func (m *Memory) sweeper() {
	ticker := time.NewTicker(m.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if n := m.DeleteExpired(); n > 0 {
				m.log.Debug("cache sweep removed expired entries", slog.Int("removed", n))
			}
		}
	}
}

// expiryFor resolves the TTL semantics into an absolute timestamp.
func (m *Memory) expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	if ttl < 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// evictOneLocked removes a single victim chosen by the evictor.
// Caller must hold the mutex.
func (m *Memory) evictOneLocked() {
	view := make([]EntryInfo, 0, len(m.entries))
	for ck, e := range m.entries {
		view = append(view, EntryInfo{
			Key:         ck,
			LastAccess:  m.accessTimes[ck],
			AccessCount: m.accessCounts[ck],
			ExpiresAt:   e.expiresAt,
			Seq:         e.seq,
		})
	}

	victim, ok := m.opts.evictor.Victim(view)
	if !ok {
		return
	}
	m.removeLocked(victim)
	m.evictions++
}

// removeLocked deletes the entry and its bookkeeping as one unit.
// Caller must hold the mutex.
func (m *Memory) removeLocked(ck string) {
	delete(m.entries, ck)
	delete(m.accessTimes, ck)
	delete(m.accessCounts, ck)
}

var _ Store = (*Memory)(nil)
