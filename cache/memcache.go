package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheStore is a Store backed by a memcached deployment. Keys are
// namespaced so multiple services can share one cluster. TTL expiry is
// managed by memcached itself.
type MemcacheStore struct {
	client    *memcache.Client
	namespace string
}

// NewMemcacheStore creates a store talking to the given memcached addresses.
func NewMemcacheStore(namespace string, addrs ...string) *MemcacheStore {
	return &MemcacheStore{
		client:    memcache.New(addrs...),
		namespace: namespace,
	}
}

// Get retrieves a cached value. A memcached miss is (nil, false, nil); any
// other client error is surfaced so callers can degrade and log it.
func (s *MemcacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := ValidateKey(Key(s.namespace, key)); err != nil {
		return nil, false, err
	}

	item, err := s.client.Get(Key(s.namespace, key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: memcached get: %w", err)
	}
	return item.Value, true, nil
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (s *MemcacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := ValidateKey(Key(s.namespace, key)); err != nil {
		return err
	}

	item := &memcache.Item{
		Key:        Key(s.namespace, key),
		Value:      value,
		Expiration: memcacheExpiration(ttl),
	}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("cache: memcached set: %w", err)
	}
	return nil
}

// memcacheExpiration converts a positive TTL to memcached expiration
// seconds. Sub-second TTLs round up to one second: an expiration of zero
// means "never expire" to memcached.
func memcacheExpiration(ttl time.Duration) int32 {
	secs := int32(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Delete removes a cached value. Idempotent - no error on miss.
func (s *MemcacheStore) Delete(_ context.Context, key string) error {
	err := s.client.Delete(Key(s.namespace, key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache: memcached delete: %w", err)
	}
	return nil
}

// Ping verifies connectivity to at least one memcached server.
func (s *MemcacheStore) Ping(_ context.Context) error {
	if err := s.client.Ping(); err != nil {
		return fmt.Errorf("cache: memcached ping: %w", err)
	}
	return nil
}

// Ensure MemcacheStore implements Store and Pinger
var (
	_ Store  = (*MemcacheStore)(nil)
	_ Pinger = (*MemcacheStore)(nil)
)
