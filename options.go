package upstream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/upstream/pkg/apicache"
	"github.com/dmitrymomot/upstream/pkg/cache"
	"github.com/dmitrymomot/upstream/pkg/httpclient"
	"github.com/dmitrymomot/upstream/pkg/retry"
)

type serviceOptions struct {
	httpClient       *http.Client
	policy           retry.Policy
	timeout          time.Duration
	logger           *slog.Logger
	store            cache.Store
	maxEntries       int
	evictor          cache.Evictor
	sweepInterval    time.Duration
	ttlConfig        apicache.Config
	reqInterceptors  []httpclient.RequestInterceptor
	respInterceptors []httpclient.ResponseInterceptor
}

func defaultServiceOptions() *serviceOptions {
	return &serviceOptions{
		policy:        retry.Moderate(),
		maxEntries:    10000,
		evictor:       cache.LRU(),
		sweepInterval: time.Minute,
		ttlConfig: apicache.Config{
			DefaultTTL: apicache.Duration(5 * time.Minute),
		},
	}
}

// Option configures a Service.
type Option func(*serviceOptions)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *serviceOptions) {
		o.httpClient = c
	}
}

// WithRetryPolicy sets the default retry policy for all requests.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *serviceOptions) {
		o.policy = p
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *serviceOptions) {
		o.timeout = d
	}
}

// WithLogger sets the structured logger shared by the HTTP client and
// the cache.
func WithLogger(log *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = log
	}
}

// WithStore replaces the default in-memory cache with a caller-owned
// store, e.g. cache.NewRedis for cross-process sharing. The service
// does not close a store it did not create.
func WithStore(store cache.Store) Option {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// WithMaxEntries caps the default in-memory store. Zero means
// unlimited. Ignored when WithStore is used.
func WithMaxEntries(n int) Option {
	return func(o *serviceOptions) {
		o.maxEntries = n
	}
}

// WithEvictor sets the eviction strategy of the default in-memory
// store. Ignored when WithStore is used.
func WithEvictor(e cache.Evictor) Option {
	return func(o *serviceOptions) {
		o.evictor = e
	}
}

// WithSweepInterval sets how often the default in-memory store purges
// expired entries. Zero disables the sweeper; expiry still applies
// lazily on access. Ignored when WithStore is used.
func WithSweepInterval(d time.Duration) Option {
	return func(o *serviceOptions) {
		o.sweepInterval = d
	}
}

// WithTTLConfig sets the full per-resource TTL configuration, usually
// loaded from YAML via apicache.LoadConfig.
func WithTTLConfig(cfg apicache.Config) Option {
	return func(o *serviceOptions) {
		o.ttlConfig = cfg
	}
}

// WithDefaultTTL sets the fallback TTL for resources without explicit
// configuration.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *serviceOptions) {
		o.ttlConfig.DefaultTTL = apicache.Duration(d)
	}
}

// WithRequestInterceptor registers a request interceptor at
// construction time.
func WithRequestInterceptor(fn httpclient.RequestInterceptor) Option {
	return func(o *serviceOptions) {
		o.reqInterceptors = append(o.reqInterceptors, fn)
	}
}

// WithResponseInterceptor registers a response interceptor at
// construction time.
func WithResponseInterceptor(fn httpclient.ResponseInterceptor) Option {
	return func(o *serviceOptions) {
		o.respInterceptors = append(o.respInterceptors, fn)
	}
}

// WithResourceTTL sets entity and list TTLs for one resource type.
func WithResourceTTL(resource string, entity, list time.Duration) Option {
	return func(o *serviceOptions) {
		if o.ttlConfig.Resources == nil {
			o.ttlConfig.Resources = make(map[string]apicache.ResourceTTL)
		}
		o.ttlConfig.Resources[resource] = apicache.ResourceTTL{
			Entity: apicache.Duration(entity),
			List:   apicache.Duration(list),
		}
	}
}
