package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for request validation.
var (
	// ErrEmptyURL is returned when a request has no URL and the client
	// has no base URL configured.
	ErrEmptyURL = errors.New("httpclient: empty request URL")

	// ErrInvalidBody is returned when a request body cannot be encoded.
	ErrInvalidBody = errors.New("httpclient: failed to encode request body")
)

// NetworkError is a transport-level failure: the request never reached
// the server (DNS failure, connection refused, connection reset, TLS
// handshake failure, etc.).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("httpclient: network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError indicates a single attempt exceeded its deadline.
// The per-attempt timeout is enforced independently of the caller's
// context, so a retried request may time out several times in a row.
type TimeoutError struct {
	URL      string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("httpclient: request to %s timed out after %s", e.URL, e.Duration)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout reports true so the error satisfies net.Error-style checks.
func (e *TimeoutError) Timeout() bool { return true }

// UpstreamError is a response with a non-2xx status code. The server
// was reached; it declined the request. Body holds the decoded JSON
// payload when the response was JSON, RawBody always holds the bytes.
type UpstreamError struct {
	StatusCode int
	Header     http.Header
	Body       any
	RawBody    []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("httpclient: upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPStatus exposes the status code to retry conditions
// (see pkg/retry.StatusOf).
func (e *UpstreamError) HTTPStatus() int { return e.StatusCode }
