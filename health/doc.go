// Package health reports whether the proxy can do its job: reach the
// upstream API and reach the cache store.
//
// A Checker reports the status of one dependency; the Aggregator combines
// them and the HTTP handlers expose liveness (/healthz), readiness (/readyz),
// and a detailed JSON view (/health). An unreachable cache store only
// degrades the service (the fetcher falls back to upstream), while an
// unreachable upstream makes it unhealthy.
package health
