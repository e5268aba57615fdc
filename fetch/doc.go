// Package fetch implements cache-aside access to the upstream API.
//
// A Fetcher answers "give me the data at this path": it consults the cache
// store first, falls back to the remote client on a miss, writes successful
// results through with a TTL, and absorbs rate limiting and upstream server
// errors by backing off and starting the whole attempt over, cache check
// included. Transient failures never reach callers; everything else
// propagates unchanged.
//
// Cache store failures are softer: an unreachable store degrades the fetcher
// to hitting upstream every time, logged but never fatal.
package fetch
