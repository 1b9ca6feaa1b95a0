package overlay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/nornoe/skyavatar/pkg/cache"
	"github.com/nornoe/skyavatar/pkg/observability"
)

// Layers turns overlay assets into raster images, memoizing the rasterized
// PNG in a cache. Concurrent requests for the same layer share one
// rasterization.
//
// Layers always decodes the cached PNG bytes, whether they were just
// produced or read back, so a layer's pixels do not depend on cache state.
type Layers struct {
	Store  *Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	group singleflight.Group
}

// NewLayers creates a layer source. A nil cache disables memoization and a
// nil keyer uses [cache.NewDefaultKeyer].
func NewLayers(store *Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Layers {
	if store == nil {
		store = Default()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Layers{Store: store, Cache: c, Keyer: keyer, Logger: logger}
}

// AssetHash returns the content hash of an asset's SVG source.
func (l *Layers) AssetHash(kind Kind, name string) (string, error) {
	svg, err := l.Store.Lookup(kind, name)
	if err != nil {
		return "", err
	}
	return cache.Hash(svg), nil
}

// Image returns the named overlay rasterized at size×size.
func (l *Layers) Image(ctx context.Context, kind Kind, name string, size int) (image.Image, error) {
	data, err := l.PNG(ctx, kind, name, size)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", kind, name, err)
	}
	return img, nil
}

// PNG returns the named overlay rasterized at size×size as PNG bytes.
func (l *Layers) PNG(ctx context.Context, kind Kind, name string, size int) ([]byte, error) {
	svg, err := l.Store.Lookup(kind, name)
	if err != nil {
		return nil, err
	}
	key := l.Keyer.OverlayKey(string(kind), name, cache.Hash(svg), size)

	if data, hit, err := l.Cache.Get(ctx, key); err != nil {
		l.Logger.Warn("overlay cache read failed", "key", key, "err", err)
	} else if hit {
		observability.Cache().OnCacheHit(ctx, "overlay")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "overlay")

	v, err, shared := l.group.Do(key, func() (any, error) {
		data, err := Rasterize(svg, size)
		if err != nil {
			return nil, fmt.Errorf("rasterize %s %q: %w", kind, name, err)
		}
		if err := l.Cache.Set(ctx, key, data, cache.TTLOverlay); err != nil {
			l.Logger.Warn("overlay cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "overlay", len(data))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.Logger.Debug("overlay rasterization shared", "kind", kind, "name", name)
	}
	return v.([]byte), nil
}
