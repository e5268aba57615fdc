// Package resilience provides retry and timeout primitives for remote calls.
//
// Retry supports constant, linear, and exponential backoff, an error
// classifier to decide what is worth retrying, and an unbounded mode for
// upstreams that are expected to recover eventually. Timeout bounds a single
// operation. Both honor context cancellation.
package resilience
