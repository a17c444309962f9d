package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/upstream/pkg/logger"
	"github.com/dmitrymomot/upstream/pkg/retry"
)

// RequestOptions describes a single logical request. The zero value of
// optional fields falls back to the client defaults.
type RequestOptions struct {
	// Method is the HTTP method. Defaults to GET.
	Method string

	// URL is an absolute URL or a path resolved against the client's
	// base URL.
	URL string

	// Body is the request payload. See encodeBody for the supported
	// kinds: nil, []byte, string, io.Reader, *MultipartBody, or any
	// JSON-marshalable value.
	Body any

	// Header holds extra request headers. The client never mutates
	// the caller's map.
	Header http.Header

	// Timeout overrides the client's per-attempt timeout.
	Timeout time.Duration

	// Policy overrides the client's retry policy for this request.
	Policy *retry.Policy
}

func (o *RequestOptions) setHeader(key, value string) {
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	o.Header.Set(key, value)
}

// Response is a completed upstream response. Data holds the decoded
// JSON payload when the response content type indicates JSON; RawBody
// always holds the raw bytes. JSON decoding is best-effort: a parse
// failure is logged and RawBody is kept, it never fails the request.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       any
	RawBody    []byte
}

// Stats is a snapshot of client counters. Counters are monotonic for
// the lifetime of the client.
type Stats struct {
	Requests  uint64
	Attempts  uint64
	Retries   uint64
	Successes uint64
	Failures  uint64
}

// Client issues HTTP requests with per-attempt timeouts, interceptor
// chains, and a retry loop driven by a retry.Policy. All collaborators
// are injected at construction; the zero dependencies default to
// http.DefaultClient, retry.Moderate(), and a no-op logger.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
	baseURL    string
	policy     retry.Policy
	timeout    time.Duration

	mu               sync.RWMutex
	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor

	requests  atomic.Uint64
	attempts  atomic.Uint64
	retries   atomic.Uint64
	successes atomic.Uint64
	failures  atomic.Uint64
}

// New creates a client.
//
// Example:
//
//	c := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithRetryPolicy(retry.Moderate()),
//	    httpclient.WithTimeout(10*time.Second),
//	)
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = logger.NewNope()
	}

	return &Client{
		httpClient:       o.httpClient,
		log:              log,
		baseURL:          o.baseURL,
		policy:           o.policy,
		timeout:          o.timeout,
		reqInterceptors:  o.reqInterceptors,
		respInterceptors: o.respInterceptors,
	}
}

// Request executes a request with retries. It returns the response on
// the first successful attempt, or the error from the last attempt
// once the policy declines to retry or the budget is exhausted. The
// error kind (NetworkError, TimeoutError, UpstreamError) survives the
// final wrapping and can be recovered with errors.As.
//
// Cancelling ctx aborts an in-flight backoff sleep immediately.
func (c *Client) Request(ctx context.Context, opts RequestOptions) (*Response, error) {
	c.requests.Add(1)

	policy := c.policy
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	// Header and body are normalized once up front so every attempt
	// replays identical bytes.
	opts.Header = opts.Header.Clone()
	if err := c.normalizeBody(&opts); err != nil {
		c.failures.Add(1)
		return nil, err
	}

	var lastErr error
	attempts := 0
	for attempt := 0; ; attempt++ {
		attempts++
		c.attempts.Add(1)

		resp, err := c.do(ctx, opts)
		if err == nil {
			c.successes.Add(1)
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !policy.ShouldRetry(err, attempt) {
			break
		}

		delay := policy.Delay(attempt)
		c.log.DebugContext(ctx, "retrying request",
			slog.String("method", opts.Method),
			slog.String("url", opts.URL),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		c.retries.Add(1)

		select {
		case <-ctx.Done():
			c.failures.Add(1)
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	c.failures.Add(1)
	return nil, fmt.Errorf("httpclient: request failed after %d attempt(s): %w", attempts, lastErr)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Request(ctx, RequestOptions{Method: http.MethodGet, URL: url})
}

// Post issues a POST request with the given body.
func (c *Client) Post(ctx context.Context, url string, body any) (*Response, error) {
	return c.Request(ctx, RequestOptions{Method: http.MethodPost, URL: url, Body: body})
}

// Put issues a PUT request with the given body.
func (c *Client) Put(ctx context.Context, url string, body any) (*Response, error) {
	return c.Request(ctx, RequestOptions{Method: http.MethodPut, URL: url, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (*Response, error) {
	return c.Request(ctx, RequestOptions{Method: http.MethodDelete, URL: url})
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:  c.requests.Load(),
		Attempts:  c.attempts.Load(),
		Retries:   c.retries.Load(),
		Successes: c.successes.Load(),
		Failures:  c.failures.Load(),
	}
}

// normalizeBody pre-encodes one-shot bodies (io.Reader, multipart) into
// replayable bytes. Other body kinds are encoded per attempt, which is
// equivalent since they are value types.
func (c *Client) normalizeBody(opts *RequestOptions) error {
	switch opts.Body.(type) {
	case io.Reader, *MultipartBody:
		data, contentType, err := encodeBody(opts.Body)
		if err != nil {
			return err
		}
		opts.Body = data
		if contentType != "" {
			opts.setHeader("Content-Type", contentType)
		}
	}
	return nil
}

// do performs one attempt: request interceptors, the network call,
// decoding, response interceptors, and status classification.
func (c *Client) do(ctx context.Context, opts RequestOptions) (*Response, error) {
	c.mu.RLock()
	reqIc := slices.Clone(c.reqInterceptors)
	respIc := slices.Clone(c.respInterceptors)
	c.mu.RUnlock()

	// Interceptors mutate a per-attempt copy of the options.
	opts.Header = opts.Header.Clone()
	for _, fn := range reqIc {
		if err := fn(ctx, &opts); err != nil {
			return nil, err
		}
	}

	url, err := c.resolveURL(opts.URL)
	if err != nil {
		return nil, err
	}

	data, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	if opts.Header != nil {
		req.Header = opts.Header
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, url, timeout, err)
	}
	defer httpResp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, url, timeout, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		RawBody:    raw,
	}
	if isJSON(httpResp.Header.Get("Content-Type")) && len(raw) > 0 {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			c.log.WarnContext(ctx, "failed to decode JSON response body",
				slog.String("url", url),
				slog.Int("status", resp.StatusCode),
				slog.String("error", err.Error()),
			)
		} else {
			resp.Data = v
		}
	}

	// Response interceptors see every completed response, including
	// error statuses, before classification.
	for _, fn := range respIc {
		if err := fn(ctx, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Data,
			RawBody:    raw,
		}
	}

	return resp, nil
}

// classify distinguishes caller cancellation, per-attempt timeouts, and
// transport failures. Callers must be able to branch on "never reached
// the server" (NetworkError/TimeoutError) vs "server said no"
// (UpstreamError).
func (c *Client) classify(ctx, attemptCtx context.Context, url string, timeout time.Duration, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if attemptCtx.Err() == context.DeadlineExceeded {
		return &TimeoutError{URL: url, Duration: timeout, Err: err}
	}
	return &NetworkError{URL: url, Err: err}
}

func (c *Client) resolveURL(u string) (string, error) {
	switch {
	case u == "" && c.baseURL == "":
		return "", ErrEmptyURL
	case u == "":
		return c.baseURL, nil
	case strings.Contains(u, "://"), c.baseURL == "":
		return u, nil
	default:
		return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(u, "/"), nil
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
