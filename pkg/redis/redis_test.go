package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL returns ErrEmptyConnectionURL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, "")
		require.ErrorIs(t, err, ErrEmptyConnectionURL)
		require.Nil(t, client)
	})

	t.Run("non-redis schemes are rejected", func(t *testing.T) {
		t.Parallel()

		for _, url := range []string{
			"http://localhost:6379",
			"https://localhost:6379",
			"localhost:6379",
			"postgresql://localhost:6379",
		} {
			client, err := Open(ctx, url)
			require.ErrorIs(t, err, ErrFailedToParseURL, url)
			require.Nil(t, client)
		}
	})

	t.Run("unreachable server fails within the retry budget", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		client, err := Open(ctx, "redis://127.0.0.1:1/0",
			WithRetry(1, 10*time.Millisecond),
			WithDialTimeout(50*time.Millisecond),
		)
		require.ErrorIs(t, err, ErrConnectionFailed)
		require.Nil(t, client)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	t.Run("nil client fails", func(t *testing.T) {
		t.Parallel()

		check := Healthcheck(nil)
		require.ErrorIs(t, check(context.Background()), ErrHealthcheckFailed)
	})
}
