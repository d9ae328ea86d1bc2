package store

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lcw/v2"
)

// Shares is the per-key channel interface, implemented by Store and Cached.
type Shares interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, share []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Cached wraps a Shares store with a loading cache and satisfies Shares itself.
// Cache is populated on reads via loader function, invalidated on writes.
type Cached struct {
	store Shares
	cache lcw.LoadingCache[[]byte]
}

// NewCached creates a new cached store wrapper.
// maxKeys sets the maximum number of entries in the cache.
func NewCached(store Shares, maxKeys int) (*Cached, error) {
	cache, err := lcw.NewLruCache(lcw.NewOpts[[]byte]().MaxKeys(maxKeys))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cached{store: store, cache: cache}, nil
}

// Get retrieves the share for a key, using cache with load-through.
func (c *Cached) Get(ctx context.Context, key string) ([]byte, error) {
	share, err := c.cache.Get(key, func() ([]byte, error) {
		val, loadErr := c.store.Get(ctx, key)
		if loadErr != nil {
			// don't wrap - callers check for ErrNotFound on missed keys
			return nil, loadErr //nolint:wrapcheck // intentionally pass through for error type checks
		}
		return val, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // pass-through, loader already has the context
	}
	return share, nil
}

// Set stores a share and invalidates the cache entry.
func (c *Cached) Set(ctx context.Context, key string, share []byte) error {
	if err := c.store.Set(ctx, key, share); err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	c.cache.Invalidate(func(k string) bool { return k == key })
	return nil
}

// Delete removes a key and invalidates the cache entry.
func (c *Cached) Delete(ctx context.Context, key string) error {
	// invalidate regardless of error - key might have been cached
	c.cache.Invalidate(func(k string) bool { return k == key })
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}
	return nil
}

// Keys lists keys from the underlying store (not cached).
func (c *Cached) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("store keys: %w", err)
	}
	return keys, nil
}

// Close closes the cache and underlying store.
func (c *Cached) Close() error {
	_ = c.cache.Close()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
func (c *Cached) Stats() lcw.CacheStat {
	return c.cache.Stat()
}
