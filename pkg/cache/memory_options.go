package cache

import (
	"log/slog"
	"time"
)

// MemoryOption configures the in-memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	defaultTTL    time.Duration
	sweepInterval time.Duration
	maxEntries    int
	evictor       Evictor
	logger        *slog.Logger
}

func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{
		defaultTTL:    time.Hour,
		sweepInterval: time.Minute,
		maxEntries:    0, // 0 = unlimited
		evictor:       LRU(),
	}
}

// WithDefaultTTL sets the expiration used when Set is called with a
// zero TTL.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.defaultTTL = d
	}
}

// WithSweepInterval sets how often the background sweeper removes
// expired entries once Start is called. Zero disables the sweeper;
// expired entries are still purged lazily on read.
// Default: 1 minute.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.sweepInterval = d
	}
}

// WithMaxEntries bounds the store. When an insert would exceed the
// limit, the configured Evictor removes exactly one entry first.
// Zero means unlimited.
// Default: 0 (unlimited).
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) {
		o.maxEntries = n
	}
}

// WithEvictor sets the eviction policy used when the store is full.
// Default: LRU().
func WithEvictor(e Evictor) MemoryOption {
	return func(o *memoryOptions) {
		if e != nil {
			o.evictor = e
		}
	}
}

// WithMemoryLogger sets the logger for sweep activity.
// Default: a no-op logger.
func WithMemoryLogger(log *slog.Logger) MemoryOption {
	return func(o *memoryOptions) {
		o.logger = log
	}
}
