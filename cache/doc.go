// Package cache provides the key/value store behind the cached fetcher.
//
// It provides a Store interface with memory and memcached implementations,
// per-deployment key namespacing, and TTL policies. Entries expire passively;
// nothing here evicts actively.
package cache
