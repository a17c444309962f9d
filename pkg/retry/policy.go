package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"syscall"
	"time"
)

// Strategy selects the backoff curve used between attempts.
type Strategy int

const (
	// StrategyExponential grows the delay by Multiplier^attempt.
	StrategyExponential Strategy = iota
	// StrategyLinear grows the delay by BaseDelay*(attempt+1).
	StrategyLinear
	// StrategyFixed uses BaseDelay for every attempt.
	StrategyFixed
)

// String returns the strategy name for logging.
func (s Strategy) String() string {
	switch s {
	case StrategyExponential:
		return "exponential"
	case StrategyLinear:
		return "linear"
	case StrategyFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Condition decides whether an error observed on the given attempt
// (zero-based) is worth retrying. It is consulted only while the
// attempt budget has not been exhausted.
type Condition func(err error, attempt int) bool

// Policy describes when to retry a failed operation and how long to
// wait before the next attempt. A Policy is an immutable value: to
// change behavior, build a new Policy and swap it wholesale.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero disables retries entirely.
	MaxRetries int

	// BaseDelay is the starting delay fed into the backoff curve.
	BaseDelay time.Duration

	// MaxDelay clamps the computed delay. Zero means no clamp.
	MaxDelay time.Duration

	// Strategy selects the backoff curve.
	Strategy Strategy

	// Multiplier is the growth factor for StrategyExponential.
	// Values <= 1 fall back to 2.
	Multiplier float64

	// Jitter scales each delay by a uniform random factor in
	// [0.5, 1.5) to desynchronize retry storms across callers.
	Jitter bool

	// Condition overrides DefaultCondition when non-nil.
	Condition Condition
}

// ShouldRetry reports whether the error from the given zero-based
// attempt should be retried under this policy.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.MaxRetries {
		return false
	}
	cond := p.Condition
	if cond == nil {
		cond = DefaultCondition
	}
	return cond(err, attempt)
}

// Delay computes the backoff before retrying the given zero-based
// attempt, clamped to MaxDelay after jitter is applied.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	var d time.Duration
	switch p.Strategy {
	case StrategyLinear:
		d = p.BaseDelay * time.Duration(attempt+1)
	case StrategyFixed:
		d = p.BaseDelay
	default:
		mult := p.Multiplier
		if mult <= 1 {
			mult = 2
		}
		d = time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt)))
	}

	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d < 0 {
		d = 0
	}
	return d
}

// statusCoder is implemented by errors that carry an HTTP status code
// (e.g. httpclient.UpstreamError). Declared here as an interface so
// this package stays free of HTTP dependencies.
type statusCoder interface {
	HTTPStatus() int
}

// retryableStatuses are the upstream status codes worth retrying:
// rate limiting, transient server failures, and storage/loop/
// network-auth conditions that commonly clear on their own.
var retryableStatuses = map[int]struct{}{
	429: {}, 500: {}, 502: {}, 503: {}, 504: {},
	507: {}, 508: {}, 510: {}, 511: {},
}

// StatusOf extracts an HTTP status code from err, or 0 if the error
// does not carry one.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// DefaultCondition retries transport-level failures (connection reset,
// connection refused, timeouts) and the retryable subset of HTTP status
// codes. Everything else, notably 4xx validation failures, is final.
func DefaultCondition(err error, _ int) bool {
	if err == nil {
		return false
	}

	if status := StatusOf(err); status != 0 {
		_, ok := retryableStatuses[status]
		return ok
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}
