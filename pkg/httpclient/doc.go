// Package httpclient executes HTTP requests with bounded retries,
// per-attempt timeouts, and interceptor chains.
//
// # Requests
//
// Create a [Client] and issue requests through [Client.Request] or the
// method shortcuts:
//
//	c := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithRetryPolicy(retry.Moderate()),
//	)
//
//	resp, err := c.Get(ctx, "/clients/5")
//	resp, err = c.Post(ctx, "/clients", map[string]string{"name": "Acme"})
//
// A non-2xx status is an error, not a response: it surfaces as an
// [*UpstreamError] carrying the status code, headers, and body. This
// keeps the retry policy and the caller on a single classification
// path.
//
// # Error taxonomy
//
// Callers can branch on how a request failed:
//
//   - [*NetworkError] — transport failure, the server was never reached
//   - [*TimeoutError] — a single attempt exceeded its deadline
//   - [*UpstreamError] — the server responded with status >= 400
//
// The final error after exhausted retries wraps the error from the
// last attempt, so errors.As recovers the concrete kind and the
// message carries the attempt count.
//
// # Retries
//
// The retry loop is driven by a [retry.Policy]. Timeouts are enforced
// per attempt, not per call: a slow upstream can legitimately consume
// (MaxRetries+1) full timeout windows plus backoff. Cancelling the
// caller's context aborts the loop before the next attempt.
//
// # Bodies
//
// Request bodies are encoded by type: JSON for arbitrary values
// (with Content-Type: application/json), raw bytes for string/[]byte,
// drained io.Reader, and multipart/form-data via [*MultipartBody].
// One-shot bodies are buffered before the first attempt so retries
// replay identical bytes.
//
// # Interceptors
//
// Request and response interceptors attach cross-cutting behavior
// without the client depending on it. Both chains run in registration
// order. [RequestID] and [LogResponses] cover the common cases:
//
//	c.AddRequestInterceptor(httpclient.RequestID())
//	c.AddResponseInterceptor(httpclient.LogResponses(log))
package httpclient
