package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/upstream/pkg/retry"
)

// Option configures the client.
type Option func(*options)

type options struct {
	httpClient       *http.Client
	logger           *slog.Logger
	baseURL          string
	policy           retry.Policy
	timeout          time.Duration
	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor
}

func defaultOptions() *options {
	return &options{
		httpClient: http.DefaultClient,
		policy:     retry.Moderate(),
		timeout:    30 * time.Second,
	}
}

// WithHTTPClient sets the underlying HTTP client.
// Useful for testing with httptest servers or custom transports.
// Default: http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL sets a base URL that relative request paths are resolved
// against. Absolute request URLs bypass it.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithRetryPolicy sets the default retry policy for all requests.
// Individual requests can override it via RequestOptions.Policy.
// Default: retry.Moderate().
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTimeout sets the default per-attempt timeout. Each retry attempt
// gets the full timeout; the overall call can therefore take up to
// (MaxRetries+1) timeouts plus backoff delays.
// Default: 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger used for retry attempts and best-effort
// body decoding failures. Default: a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithRequestInterceptor registers a request interceptor at
// construction time. Equivalent to AddRequestInterceptor.
func WithRequestInterceptor(fn RequestInterceptor) Option {
	return func(o *options) {
		if fn != nil {
			o.reqInterceptors = append(o.reqInterceptors, fn)
		}
	}
}

// WithResponseInterceptor registers a response interceptor at
// construction time. Equivalent to AddResponseInterceptor.
func WithResponseInterceptor(fn ResponseInterceptor) Option {
	return func(o *options) {
		if fn != nil {
			o.respInterceptors = append(o.respInterceptors, fn)
		}
	}
}
