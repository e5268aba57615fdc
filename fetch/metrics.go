package fetch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// metrics holds the fetcher's instruments. All counters are best-effort.
type metrics struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	remoteCalls  metric.Int64Counter
	retryWaits   metric.Int64Counter
	durationHist metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	hits, err := meter.Int64Counter(
		"fetch.cache.hits",
		metric.WithDescription("Fetches answered from the cache store"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"fetch.cache.misses",
		metric.WithDescription("Fetches that had to go upstream"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	remoteCalls, err := meter.Int64Counter(
		"fetch.remote.calls",
		metric.WithDescription("GET requests issued against the upstream API"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	retryWaits, err := meter.Int64Counter(
		"fetch.retry.waits",
		metric.WithDescription("Backoff waits taken after transient upstream failures"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"fetch.duration_ms",
		metric.WithDescription("End-to-end fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		hits:         hits,
		misses:       misses,
		remoteCalls:  remoteCalls,
		retryWaits:   retryWaits,
		durationHist: durationHist,
	}, nil
}

func (m *metrics) recordHit(ctx context.Context)    { m.hits.Add(ctx, 1) }
func (m *metrics) recordMiss(ctx context.Context)   { m.misses.Add(ctx, 1) }
func (m *metrics) recordRemote(ctx context.Context) { m.remoteCalls.Add(ctx, 1) }
func (m *metrics) recordRetry(ctx context.Context)  { m.retryWaits.Add(ctx, 1) }

func (m *metrics) recordDuration(ctx context.Context, d time.Duration) {
	m.durationHist.Record(ctx, float64(d.Milliseconds()))
}
