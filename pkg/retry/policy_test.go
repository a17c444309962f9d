package retry_test

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upstream/pkg/retry"
)

// statusErr is a minimal error carrying an HTTP status code.
type statusErr struct{ status int }

func (e *statusErr) Error() string   { return fmt.Sprintf("upstream status %d", e.status) }
func (e *statusErr) HTTPStatus() int { return e.status }

func TestPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	t.Run("false once attempts are exhausted", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{MaxRetries: 2}
		err := &statusErr{status: 503}

		require.True(t, p.ShouldRetry(err, 0))
		require.True(t, p.ShouldRetry(err, 1))
		require.False(t, p.ShouldRetry(err, 2))
		require.False(t, p.ShouldRetry(err, 5))
	})

	t.Run("false for nil error", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{MaxRetries: 3}
		require.False(t, p.ShouldRetry(nil, 0))
	})

	t.Run("non-retryable status is final regardless of budget", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{MaxRetries: 10}
		require.False(t, p.ShouldRetry(&statusErr{status: 422}, 0))
		require.False(t, p.ShouldRetry(&statusErr{status: 404}, 0))
	})

	t.Run("custom condition wins", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{
			MaxRetries: 3,
			Condition:  func(err error, _ int) bool { return retry.StatusOf(err) == 418 },
		}
		require.True(t, p.ShouldRetry(&statusErr{status: 418}, 0))
		require.False(t, p.ShouldRetry(&statusErr{status: 503}, 0))
	})
}

func TestPolicy_Delay(t *testing.T) {
	t.Parallel()

	t.Run("exponential", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{
			BaseDelay:  time.Second,
			Strategy:   retry.StrategyExponential,
			Multiplier: 2,
		}
		require.Equal(t, time.Second, p.Delay(0))
		require.Equal(t, 2*time.Second, p.Delay(1))
		require.Equal(t, 4*time.Second, p.Delay(2))
	})

	t.Run("linear", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{BaseDelay: 500 * time.Millisecond, Strategy: retry.StrategyLinear}
		require.Equal(t, 500*time.Millisecond, p.Delay(0))
		require.Equal(t, time.Second, p.Delay(1))
		require.Equal(t, 1500*time.Millisecond, p.Delay(2))
	})

	t.Run("fixed", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{BaseDelay: 3 * time.Second, Strategy: retry.StrategyFixed}
		require.Equal(t, 3*time.Second, p.Delay(0))
		require.Equal(t, 3*time.Second, p.Delay(7))
	})

	t.Run("clamped to max delay", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{
			BaseDelay:  time.Second,
			MaxDelay:   3 * time.Second,
			Strategy:   retry.StrategyExponential,
			Multiplier: 2,
		}
		require.Equal(t, 3*time.Second, p.Delay(5))
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		t.Parallel()

		p := retry.Policy{
			BaseDelay:  time.Second,
			Strategy:   retry.StrategyFixed,
			Jitter:     true,
		}
		for range 100 {
			d := p.Delay(0)
			require.GreaterOrEqual(t, d, 500*time.Millisecond)
			require.Less(t, d, 1500*time.Millisecond)
		}
	})
}

func TestDefaultCondition(t *testing.T) {
	t.Parallel()

	retryable := []error{
		&statusErr{status: 429},
		&statusErr{status: 500},
		&statusErr{status: 502},
		&statusErr{status: 503},
		&statusErr{status: 504},
		&statusErr{status: 507},
		&statusErr{status: 511},
		context.DeadlineExceeded,
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		fmt.Errorf("wrapped: %w", syscall.ECONNREFUSED),
	}
	for _, err := range retryable {
		require.True(t, retry.DefaultCondition(err, 0), "expected retryable: %v", err)
	}

	final := []error{
		&statusErr{status: 400},
		&statusErr{status: 404},
		&statusErr{status: 422},
		&statusErr{status: 501},
		errors.New("some app error"),
		nil,
	}
	for _, err := range final {
		require.False(t, retry.DefaultCondition(err, 0), "expected final: %v", err)
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()

	t.Run("moderate caps 5xx to two retries", func(t *testing.T) {
		t.Parallel()

		p := retry.Moderate()
		err := &statusErr{status: 503}
		require.True(t, p.ShouldRetry(err, 0))
		require.True(t, p.ShouldRetry(err, 1))
		require.False(t, p.ShouldRetry(err, 2))

		// 429 uses the full budget.
		limited := &statusErr{status: 429}
		require.True(t, p.ShouldRetry(limited, 2))
	})

	t.Run("upload never repeats 4xx except 429", func(t *testing.T) {
		t.Parallel()

		p := retry.Upload()
		require.False(t, p.ShouldRetry(&statusErr{status: 400}, 0))
		require.False(t, p.ShouldRetry(&statusErr{status: 413}, 0))
		require.True(t, p.ShouldRetry(&statusErr{status: 429}, 0))
		require.True(t, p.ShouldRetry(&statusErr{status: 503}, 0))
	})

	t.Run("no retry means single attempt", func(t *testing.T) {
		t.Parallel()

		p := retry.NoRetry()
		require.False(t, p.ShouldRetry(&statusErr{status: 503}, 0))
	})

	t.Run("conservative is deterministic", func(t *testing.T) {
		t.Parallel()

		p := retry.Conservative()
		require.Equal(t, 2, p.MaxRetries)
		require.Equal(t, retry.StrategyLinear, p.Strategy)
		require.False(t, p.Jitter)
		require.Equal(t, 2*time.Second, p.Delay(0))
		require.Equal(t, 4*time.Second, p.Delay(1))
	})
}
