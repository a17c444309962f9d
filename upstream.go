package upstream

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/upstream/pkg/apicache"
	"github.com/dmitrymomot/upstream/pkg/cache"
	"github.com/dmitrymomot/upstream/pkg/httpclient"
	"github.com/dmitrymomot/upstream/pkg/logger"
)

// Service is the resilient access layer over one remote HTTP API:
// requests go out with bounded retries and backoff, results are
// memoized in a bounded TTL cache, and mutations invalidate the
// affected keys. All collaborators are injected at construction.
type Service struct {
	client   *httpclient.Client
	store    cache.Store
	strategy *apicache.Strategy
	log      *slog.Logger
	ownStore bool
}

// New creates a Service for the API at baseURL.
//
// Example:
//
//	svc := upstream.New("https://api.example.com",
//	    upstream.WithRetryPolicy(retry.Moderate()),
//	    upstream.WithMaxEntries(10000),
//	    upstream.WithResourceTTL("client", 30*time.Minute, 90*time.Second),
//	)
//	defer svc.Close()
func New(baseURL string, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = logger.NewNope()
	}

	store := o.store
	ownStore := false
	if store == nil {
		mem := cache.NewMemory(
			cache.WithMaxEntries(o.maxEntries),
			cache.WithEvictor(o.evictor),
			cache.WithSweepInterval(o.sweepInterval),
			cache.WithMemoryLogger(log),
		)
		_ = mem.Start()
		store = mem
		ownStore = true
	}

	clientOpts := []httpclient.Option{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRetryPolicy(o.policy),
		httpclient.WithLogger(log),
	}
	if o.timeout > 0 {
		clientOpts = append(clientOpts, httpclient.WithTimeout(o.timeout))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	for _, fn := range o.reqInterceptors {
		clientOpts = append(clientOpts, httpclient.WithRequestInterceptor(fn))
	}
	for _, fn := range o.respInterceptors {
		clientOpts = append(clientOpts, httpclient.WithResponseInterceptor(fn))
	}

	return &Service{
		client:   httpclient.New(clientOpts...),
		store:    store,
		strategy: apicache.New(store, apicache.WithConfig(o.ttlConfig)),
		log:      log,
		ownStore: ownStore,
	}
}

// Close releases the service's resources. A store supplied by the
// caller is left open.
func (s *Service) Close() error {
	if s.ownStore {
		return s.store.Close()
	}
	return nil
}

// Request executes an HTTP request through the retry loop.
func (s *Service) Request(ctx context.Context, opts httpclient.RequestOptions) (*httpclient.Response, error) {
	return s.client.Request(ctx, opts)
}

// Get issues a GET request.
func (s *Service) Get(ctx context.Context, url string) (*httpclient.Response, error) {
	return s.client.Get(ctx, url)
}

// Post issues a POST request.
func (s *Service) Post(ctx context.Context, url string, body any) (*httpclient.Response, error) {
	return s.client.Post(ctx, url, body)
}

// Put issues a PUT request.
func (s *Service) Put(ctx context.Context, url string, body any) (*httpclient.Response, error) {
	return s.client.Put(ctx, url, body)
}

// Delete issues a DELETE request.
func (s *Service) Delete(ctx context.Context, url string) (*httpclient.Response, error) {
	return s.client.Delete(ctx, url)
}

// AddRequestInterceptor appends to the HTTP request interceptor chain.
func (s *Service) AddRequestInterceptor(fn httpclient.RequestInterceptor) {
	s.client.AddRequestInterceptor(fn)
}

// AddResponseInterceptor appends to the HTTP response interceptor
// chain.
func (s *Service) AddResponseInterceptor(fn httpclient.ResponseInterceptor) {
	s.client.AddResponseInterceptor(fn)
}

// GetOrFetch returns the value cached under (ns, key) or runs fetch to
// produce and cache it. On a hit the fetch function is never invoked.
func (s *Service) GetOrFetch(ctx context.Context, ns, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (any, error) {
	return s.strategy.GetOrFetch(ctx, ns, key, ttl, fetch)
}

// FetchEntity is GetOrFetch keyed and TTL'd for one entity of a
// resource type.
func (s *Service) FetchEntity(ctx context.Context, resource, id string, fetch func(ctx context.Context) (any, error)) (any, error) {
	return s.strategy.FetchEntity(ctx, resource, id, fetch)
}

// FetchList is GetOrFetch keyed and TTL'd for a filtered listing.
func (s *Service) FetchList(ctx context.Context, resource string, filter map[string]any, fetch func(ctx context.Context) (any, error)) (any, error) {
	return s.strategy.FetchList(ctx, resource, filter, fetch)
}

// Invalidate removes a mutated entity's cache entry and every cached
// list of its resource type, returning the removed keys. Call it after
// any create, update, or delete against the remote API.
func (s *Service) Invalidate(ctx context.Context, resource, id string) ([]string, error) {
	return s.strategy.Invalidate(ctx, resource, id)
}

// InvalidateChildren removes cached sub-resources scoped under a
// parent.
func (s *Service) InvalidateChildren(ctx context.Context, resource, parentID string) ([]string, error) {
	return s.strategy.InvalidateChildren(ctx, resource, parentID)
}

// CacheStats returns the cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.store.Stats()
}

// ClientStats returns the HTTP client counters.
func (s *Service) ClientStats() httpclient.Stats {
	return s.client.Stats()
}
