package health

import (
	"context"

	"github.com/jonwraymond/boardproxy/cache"
	"github.com/jonwraymond/boardproxy/fetch"
	"github.com/jonwraymond/boardproxy/upstream"
)

// Prober fetches a path from the upstream API, optionally bypassing the cache.
//
// Contract: implementations must return the raw response body on success and
// a non-nil error on failure. *fetch.Fetcher satisfies this interface.
type Prober interface {
	Fetch(ctx context.Context, path string, opts ...fetch.Option) ([]byte, error)
}

var _ Prober = (*fetch.Fetcher)(nil)

// UpstreamChecker verifies the upstream API is reachable by fetching the
// authenticated user. The probe bypasses the cache so a stale entry cannot
// mask an outage, and skips the fetcher's retry loop so a rate-limited
// upstream reports its status instead of timing the check out.
type UpstreamChecker struct {
	prober Prober
}

// NewUpstreamChecker creates a checker that probes the upstream API.
func NewUpstreamChecker(prober Prober) *UpstreamChecker {
	return &UpstreamChecker{prober: prober}
}

// Name returns the name of this checker.
func (c *UpstreamChecker) Name() string {
	return "upstream"
}

// Check probes the upstream API. Rate limiting and server errors report
// degraded since they clear on their own; anything else is unhealthy.
func (c *UpstreamChecker) Check(ctx context.Context) Result {
	_, err := c.prober.Fetch(ctx, "/users/me", fetch.Bypass(), fetch.NoRetry())
	if err == nil {
		return Healthy("upstream reachable")
	}
	if upstream.IsTransient(err) {
		return Degraded("upstream returning transient errors: " + err.Error())
	}
	return Unhealthy("upstream unreachable", err)
}

// CacheChecker verifies the cache store is reachable. A failed ping only
// degrades the service: the fetcher falls back to upstream on store errors.
type CacheChecker struct {
	pinger cache.Pinger
}

// NewCacheChecker creates a checker that pings the cache store.
func NewCacheChecker(pinger cache.Pinger) *CacheChecker {
	return &CacheChecker{pinger: pinger}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check pings the cache store.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := c.pinger.Ping(ctx); err != nil {
		return Degraded("cache store unreachable: " + err.Error())
	}
	return Healthy("cache store reachable")
}

var (
	_ Checker = (*UpstreamChecker)(nil)
	_ Checker = (*CacheChecker)(nil)
)
