// Package aggregate composes cached fetches into derived collections.
//
// Every operation recomputes from the fetcher; nothing is held here, so
// staleness is bounded only by the cache TTL. Fan-outs (project details,
// per-project tasks) abort on the first error: partial aggregates are never
// returned.
package aggregate
