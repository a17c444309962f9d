// Package upstream is a resilient access layer for a remote HTTP API.
//
// It composes three concerns that the subpackages implement
// independently:
//
//   - pkg/retry: backoff policies deciding whether and when a failed
//     attempt is repeated.
//   - pkg/httpclient: an HTTP client that executes requests through a
//     retry policy, classifies failures, and runs interceptor chains.
//   - pkg/cache and pkg/apicache: a bounded TTL cache with pluggable
//     eviction, plus the resource-aware keying and invalidation rules
//     that map API entities and listings onto it.
//
// A Service wires them together behind one constructor:
//
//	svc := upstream.New("https://api.example.com",
//	    upstream.WithRetryPolicy(retry.Moderate()),
//	    upstream.WithResourceTTL("client", 30*time.Minute, 90*time.Second),
//	)
//	defer svc.Close()
//
//	v, err := svc.FetchEntity(ctx, "client", "42", func(ctx context.Context) (any, error) {
//	    resp, err := svc.Get(ctx, "/clients/42")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return resp.Data, nil
//	})
//
// After mutating a resource, invalidate its cached state:
//
//	_, _ = svc.Invalidate(ctx, "client", "42")
//
// Each subpackage is usable on its own; Service is a convenience for
// the common wiring.
package upstream
