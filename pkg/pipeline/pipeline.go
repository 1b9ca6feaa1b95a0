// Package pipeline runs the avatar workflow: validate → render → publish.
//
// The HTTP API and the CLI both go through a [Runner], so validation order,
// artifact caching and publish behavior are the same for every entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, renderer, gate, logger)
//
//	// Render only (preview), optionally downscaled
//	result, err := runner.Render(ctx, pipeline.Options{Params: params, Size: 128})
//
//	// Render and publish
//	result, err := runner.Execute(ctx, pipeline.Options{Params: params})
//	png, record := result.PNG, result.Record
//
// Rendering is deterministic, so rendered PNGs are cached under a key built
// from the parameters and the overlay asset bytes. Publishing is never
// cached.
package pipeline

import (
	"bytes"
	"fmt"
	"image/png"
	"time"

	"github.com/disintegration/imaging"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/errors"
)

// Thumbnail size bounds for [Options.Size].
const (
	MinSize = 16
	MaxSize = avatar.Size
)

// Options configures one pipeline run.
type Options struct {
	Params avatar.Params `json:"params"`

	// Size downscales the rendered PNG for previews. Zero keeps the full
	// canvas. Ignored by Execute, which always publishes the full canvas.
	Size int `json:"size,omitempty"`

	// Refresh bypasses the artifact cache lookup.
	Refresh bool `json:"refresh,omitempty"`
}

// Validate checks the options that do not depend on the overlay store.
func (o Options) Validate() error {
	if o.Size != 0 && (o.Size < MinSize || o.Size > MaxSize) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid size %d (must be between %d and %d)", o.Size, MinSize, MaxSize)
	}
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PNG is the rendered avatar, downscaled when Options.Size was set.
	PNG []byte

	// Record is the archive record of the published avatar. Nil for
	// render-only runs.
	Record *avatar.ArchiveRecord

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RenderTime  time.Duration
	PublishTime time.Duration
	Bytes       int
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether the rendered PNG came from the artifact cache
}

// Thumbnail downscales a PNG to size x size with Lanczos resampling.
func Thumbnail(data []byte, size int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	if img.Bounds().Dx() == size && img.Bounds().Dy() == size {
		return data, nil
	}
	thumb := imaging.Resize(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
