package retry

import "time"

// Moderate is the default policy for ordinary API calls: three retries
// with exponential backoff and jitter. Rate limiting (429) uses the
// full retry budget; server errors (5xx) are capped at two retries so
// a struggling upstream is not hammered for long.
func Moderate() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Strategy:   StrategyExponential,
		Multiplier: 2,
		Jitter:     true,
		Condition: func(err error, attempt int) bool {
			status := StatusOf(err)
			switch {
			case status == 429:
				return true
			case status >= 500:
				return attempt < 2
			default:
				return false
			}
		},
	}
}

// Aggressive retries more often with a gentler curve. Use for
// idempotent reads against flaky upstreams where latency matters less
// than eventually getting an answer.
func Aggressive() Policy {
	return Policy{
		MaxRetries: 5,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   15 * time.Second,
		Strategy:   StrategyExponential,
		Multiplier: 1.5,
		Jitter:     true,
	}
}

// Conservative retries twice with linear backoff and no jitter.
// Predictable timing for callers with tight latency budgets.
func Conservative() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		MaxDelay:   10 * time.Second,
		Strategy:   StrategyLinear,
	}
}

// NoRetry performs a single attempt.
func NoRetry() Policy {
	return Policy{}
}

// Upload is tuned for large request bodies: client errors other than
// 429 are never retried, since re-sending a multi-megabyte body on a
// 4xx only repeats the failure at full cost. Transport failures and
// retryable 5xx codes still go through DefaultCondition.
func Upload() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Strategy:   StrategyExponential,
		Multiplier: 2,
		Jitter:     true,
		Condition: func(err error, attempt int) bool {
			if status := StatusOf(err); status >= 400 && status < 500 && status != 429 {
				return false
			}
			return DefaultCondition(err, attempt)
		},
	}
}
