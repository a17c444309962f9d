package httpclient

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// RequestInterceptor transforms request options before each attempt.
// Interceptors run in registration order and may mutate the options
// in place; returning an error aborts the attempt.
type RequestInterceptor func(ctx context.Context, opts *RequestOptions) error

// ResponseInterceptor observes or transforms a completed response.
// Interceptors run in registration order (deliberately not reversed)
// and see non-2xx responses before they are converted to errors.
type ResponseInterceptor func(ctx context.Context, resp *Response) error

// AddRequestInterceptor appends an interceptor to the request chain.
func (c *Client) AddRequestInterceptor(fn RequestInterceptor) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqInterceptors = append(c.reqInterceptors, fn)
}

// AddResponseInterceptor appends an interceptor to the response chain.
func (c *Client) AddResponseInterceptor(fn ResponseInterceptor) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.respInterceptors = append(c.respInterceptors, fn)
}

// RequestID returns a request interceptor that attaches a fresh UUID
// in the X-Request-ID header unless the caller already set one.
func RequestID() RequestInterceptor {
	return func(_ context.Context, opts *RequestOptions) error {
		if opts.Header.Get("X-Request-ID") == "" {
			opts.setHeader("X-Request-ID", uuid.NewString())
		}
		return nil
	}
}

// LogResponses returns a response interceptor that logs every completed
// response at debug level. Attach it to observe traffic without the
// client depending on a particular logging setup.
func LogResponses(log *slog.Logger) ResponseInterceptor {
	return func(ctx context.Context, resp *Response) error {
		log.DebugContext(ctx, "upstream response",
			slog.Int("status", resp.StatusCode),
			slog.Int("body_bytes", len(resp.RawBody)),
		)
		return nil
	}
}
