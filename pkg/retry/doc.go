// Package retry provides retry policies with configurable backoff.
//
// A [Policy] is a pure decision component: it answers "should this
// error be retried?" and "how long to wait before the next attempt?"
// without performing any I/O itself. The executing side (see
// pkg/httpclient) owns the loop and the sleeping.
//
// # Policies
//
// Build a policy directly or start from a preset:
//
//	p := retry.Policy{
//	    MaxRetries: 3,
//	    BaseDelay:  time.Second,
//	    MaxDelay:   30 * time.Second,
//	    Strategy:   retry.StrategyExponential,
//	    Multiplier: 2,
//	    Jitter:     true,
//	}
//
//	if p.ShouldRetry(err, attempt) {
//	    time.Sleep(p.Delay(attempt))
//	}
//
// Presets: [Moderate], [Aggressive], [Conservative], [NoRetry], and
// [Upload] (which refuses to re-send large bodies on 4xx responses).
//
// # Backoff strategies
//
//   - [StrategyExponential]: BaseDelay * Multiplier^attempt
//   - [StrategyLinear]: BaseDelay * (attempt+1)
//   - [StrategyFixed]: BaseDelay
//
// With Jitter enabled each delay is scaled by a uniform random factor
// in [0.5, 1.5) so that many callers retrying the same upstream do not
// synchronize into retry storms. The final delay is clamped to
// MaxDelay.
//
// # Retry conditions
//
// [DefaultCondition] retries timeouts, connection resets/refusals, and
// HTTP statuses 429, 500, 502, 503, 504, 507, 508, 510, 511. Errors
// carrying an HTTP status are recognized through the
// interface{ HTTPStatus() int } contract, which keeps this package
// independent of any HTTP client implementation.
package retry
