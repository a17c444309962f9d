// Package redis opens go-redis clients for the Redis-backed cache
// store.
//
// [Open] parses a redis:// or rediss:// URL, applies pooling and
// timeout options, and retries the initial connection with linear
// backoff. [MustOpen] exits the process on failure for programs where
// a missing cache backend is fatal.
//
//	client, err := redis.Open(ctx, "redis://localhost:6379/0",
//	    redis.WithPoolSize(20),
//	    redis.WithRetry(5, 3*time.Second),
//	)
//
// The returned client's lifecycle belongs to the caller: close it on
// shutdown. [Healthcheck] adapts a client to the common
// func(context.Context) error health probe shape.
package redis
