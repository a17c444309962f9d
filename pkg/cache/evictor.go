package cache

import "time"

// EntryInfo is the per-entry bookkeeping view handed to an Evictor.
type EntryInfo struct {
	// Key is the composite "namespace:key" form.
	Key string
	// LastAccess is when the entry was last read, touched, or written.
	LastAccess time.Time
	// AccessCount is how many times the entry was read or touched.
	AccessCount uint64
	// ExpiresAt is the absolute expiry; zero means never expires.
	ExpiresAt time.Time
	// Seq is the insertion sequence number, used for deterministic
	// tie-breaking.
	Seq uint64
}

// Evictor picks the entry to remove when an insert would exceed the
// store's capacity. Exactly one victim is chosen per overflowing
// insert. Adding an eviction policy means adding an implementation,
// not another branch at the call sites.
type Evictor interface {
	// Name identifies the policy in stats and logs.
	Name() string
	// Victim returns the composite key to evict, or false when the
	// view is empty.
	Victim(entries []EntryInfo) (string, bool)
}

// LRU evicts the entry with the oldest last-access timestamp.
// Ties fall back to the oldest-inserted entry.
func LRU() Evictor { return lruEvictor{} }

type lruEvictor struct{}

func (lruEvictor) Name() string { return "lru" }

func (lruEvictor) Victim(entries []EntryInfo) (string, bool) {
	return pick(entries, func(a, b EntryInfo) bool {
		if !a.LastAccess.Equal(b.LastAccess) {
			return a.LastAccess.Before(b.LastAccess)
		}
		return a.Seq < b.Seq
	})
}

// LFU evicts the entry with the lowest access count. Ties are broken
// deterministically by oldest insertion order; the access pattern of
// equally-cold entries is not otherwise distinguished.
func LFU() Evictor { return lfuEvictor{} }

type lfuEvictor struct{}

func (lfuEvictor) Name() string { return "lfu" }

func (lfuEvictor) Victim(entries []EntryInfo) (string, bool) {
	return pick(entries, func(a, b EntryInfo) bool {
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.Seq < b.Seq
	})
}

// SoonestExpiry evicts the entry with the earliest expiry timestamp,
// regardless of access pattern. Entries that never expire are evicted
// last.
func SoonestExpiry() Evictor { return ttlEvictor{} }

type ttlEvictor struct{}

func (ttlEvictor) Name() string { return "soonest-expiry" }

func (ttlEvictor) Victim(entries []EntryInfo) (string, bool) {
	return pick(entries, func(a, b EntryInfo) bool {
		switch {
		case a.ExpiresAt.IsZero() && b.ExpiresAt.IsZero():
			return a.Seq < b.Seq
		case a.ExpiresAt.IsZero():
			return false
		case b.ExpiresAt.IsZero():
			return true
		case !a.ExpiresAt.Equal(b.ExpiresAt):
			return a.ExpiresAt.Before(b.ExpiresAt)
		default:
			return a.Seq < b.Seq
		}
	})
}

func pick(entries []EntryInfo, less func(a, b EntryInfo) bool) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	victim := entries[0]
	for _, e := range entries[1:] {
		if less(e, victim) {
			victim = e
		}
	}
	return victim.Key, true
}
