// Package cache provides the byte cache shared by the renderer and the
// pipeline runner.
//
// Two kinds of values are cached:
//
//   - Overlay layers: eyes/mouth SVG assets rasterized to PNG, keyed by the
//     asset's content hash and the target size.
//   - Avatar artifacts: final PNG bytes, keyed by a hash of the avatar
//     parameters plus the hashes of the overlay assets they reference.
//
// Both are pure functions of their key, so entries never need invalidation
// beyond their TTL.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: local directory, used by the CLI
//   - [RedisCache]: shared cache for `skyavatar serve` deployments
//
// Keys are produced by a [Keyer]; [ScopedKeyer] adds a namespace prefix so
// several deployments can share one Redis instance.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for cached values.
const (
	TTLOverlay  = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
