package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/boardproxy/cache"
	"github.com/jonwraymond/boardproxy/observe"
	"github.com/jonwraymond/boardproxy/resilience"
	"github.com/jonwraymond/boardproxy/upstream"
)

// DefaultBackoff is the fixed wait before retrying a rate-limited or
// server-erroring fetch.
const DefaultBackoff = 10 * time.Second

// ErrNilClient indicates the fetcher was constructed without a remote client.
var ErrNilClient = errors.New("fetch: remote client is nil")

// RemoteClient is the upstream surface the fetcher needs. *upstream.Client
// satisfies it; tests substitute counting stubs.
type RemoteClient interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Config configures a Fetcher.
type Config struct {
	// Store is the cache store. Required.
	Store cache.Store

	// Client is the remote client. Required.
	Client RemoteClient

	// Policy supplies the default TTL. Zero value falls back to
	// cache.DefaultPolicy.
	Policy cache.Policy

	// Backoff is the fixed wait after a transient upstream failure.
	// Default: DefaultBackoff.
	Backoff time.Duration

	// MaxAttempts bounds transient retries. Zero means retry until the
	// upstream recovers or the context is canceled.
	MaxAttempts int

	// Logger receives degradation warnings and retry notices.
	Logger observe.Logger

	// Meter receives fetch instruments. Nil means no metrics.
	Meter metric.Meter
}

// Fetcher combines a cache store and a remote client into a single fetch
// operation with retry-on-transient semantics.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent fetches of the same
//   path are collapsed into one remote call.
// - Context: retry waits and remote calls honor cancellation.
// - Errors: only fatal upstream errors escape; see package doc.
type Fetcher struct {
	store   cache.Store
	client  RemoteClient
	policy  cache.Policy
	retry   *resilience.Retry
	logger  observe.Logger
	metrics *metrics
	group   singleflight.Group
}

// Option adjusts a single Fetch call.
type Option func(*fetchOptions)

type fetchOptions struct {
	ttl     time.Duration
	bypass  bool
	noRetry bool
}

// WithTTL overrides the policy TTL for this fetch.
func WithTTL(ttl time.Duration) Option {
	return func(o *fetchOptions) { o.ttl = ttl }
}

// Bypass skips the cache lookup. The result is still written through, so a
// bypass fetch refreshes the entry for later callers.
func Bypass() Option {
	return func(o *fetchOptions) { o.bypass = true }
}

// NoRetry fails the fetch on the first transient upstream error instead of
// backing off. Health probes use this: a rate-limited upstream must surface
// as its status error, not as a deadline expiring mid-backoff.
func NoRetry() Option {
	return func(o *fetchOptions) { o.noRetry = true }
}

// New creates a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Store == nil {
		return nil, cache.ErrNilStore
	}
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Policy == (cache.Policy{}) {
		cfg.Policy = cache.DefaultPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	logger = logger.With(observe.Field{Key: "component", Value: "fetch"})

	m, err := newMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("fetch: create instruments: %w", err)
	}

	f := &Fetcher{
		store:   cfg.Store,
		client:  cfg.Client,
		policy:  cfg.Policy,
		logger:  logger,
		metrics: m,
	}

	f.retry = resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.Backoff,
		Strategy:    resilience.BackoffConstant,
		RetryIf:     upstream.IsTransient,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			f.metrics.recordRetry(context.Background())
			f.logger.Warn(context.Background(), "transient upstream failure, backing off",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay", Value: delay.String()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		},
	})

	return f, nil
}

// Fetch returns the data cached under path, fetching and caching it on a
// miss. Same path and no intervening expiry means byte-identical results.
func (f *Fetcher) Fetch(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.bypass {
		// A bypass fetch must reach upstream itself, so it never joins an
		// in-flight group.
		return f.fetchWithRetry(ctx, path, o)
	}

	// Collapse concurrent fetches of the same path into one execution. The
	// TTL and retry mode are part of the key so callers with different
	// freshness or failure demands do not share each other's results.
	v, err, _ := f.group.Do(fmt.Sprintf("%s|%d|%t", path, o.ttl, o.noRetry), func() (any, error) {
		return f.fetchWithRetry(ctx, path, o)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, path string, o fetchOptions) ([]byte, error) {
	start := time.Now()
	defer func() { f.metrics.recordDuration(ctx, time.Since(start)) }()

	if o.noRetry {
		return f.fetchOnce(ctx, path, o)
	}

	var result []byte
	// Each attempt starts from the top: a concurrent request may have
	// populated the cache while we were backing off.
	err := f.retry.Execute(ctx, func(ctx context.Context) error {
		data, err := f.fetchOnce(ctx, path, o)
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, path string, o fetchOptions) ([]byte, error) {
	if !o.bypass {
		value, ok, err := f.store.Get(ctx, path)
		if err != nil {
			// Degrade to a miss: the upstream is the source of truth.
			f.logger.Warn(ctx, "cache store unavailable, fetching upstream",
				observe.Field{Key: "path", Value: path},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		if ok {
			f.metrics.recordHit(ctx)
			f.logger.Debug(ctx, "cache hit", observe.Field{Key: "path", Value: path})
			return value, nil
		}
		f.metrics.recordMiss(ctx)
	}

	f.metrics.recordRemote(ctx)
	data, err := f.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	ttl := f.policy.EffectiveTTL(o.ttl)
	if ttl > 0 {
		if err := f.store.Set(ctx, path, data, ttl); err != nil {
			// The fetch succeeded; a failed write-through only costs the
			// next caller a remote call.
			f.logger.Warn(ctx, "cache write-through failed",
				observe.Field{Key: "path", Value: path},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}

	f.logger.Debug(ctx, "fetched upstream",
		observe.Field{Key: "path", Value: path},
		observe.Field{Key: "ttl", Value: ttl.String()},
	)
	return data, nil
}
