// Package cache stores rendered graph artifacts keyed by a hash of their
// DOT source.
//
// Rendering a large graph through Graphviz takes far longer than a
// selection mutation, and the same selection on the same graph always
// yields the same DOT, so rendered bytes are cached by content hash.
//
//	c, _ := cache.NewFileCache(dir)
//	key := cache.ArtifactKey(dot, "svg")
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    return data
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the cached bytes and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is how long rendered artifacts are kept.
const DefaultTTL = 7 * 24 * time.Hour

// ArtifactKey returns the cache key for dot rendered as format.
func ArtifactKey(dot, format string) string {
	return digestKey("artifact", format, dot)
}
