package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/cache"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/publish"
	"github.com/nornoe/skyavatar/pkg/render/compose"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Renderer *compose.Renderer

	// Gate publishes rendered avatars. A runner without a gate can only
	// render.
	Gate *publish.Gate
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If renderer is nil, a renderer over the embedded assets is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, renderer *compose.Renderer, gate *publish.Gate, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if renderer == nil {
		renderer = compose.NewRenderer(nil, logger)
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Renderer: renderer,
		Gate:     gate,
	}
}

// Render validates and renders without publishing.
func (r *Runner) Render(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	renderStart := time.Now()
	data, hit, err := r.RenderWithCacheInfo(ctx, opts.Params, opts.Refresh)
	if err != nil {
		return nil, err
	}
	if opts.Size != 0 {
		if data, err = Thumbnail(data, opts.Size); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "thumbnail")
		}
	}
	result.PNG = data
	result.Stats.RenderTime = time.Since(renderStart)
	result.Stats.Bytes = len(data)
	result.CacheInfo.RenderHit = hit

	r.Logger.Debug("rendered avatar",
		"shape", opts.Params.Shape,
		"cached", hit,
		"bytes", len(data),
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Execute renders the full-size avatar and publishes it. Validation errors
// are returned before any call to the repository service. Without a gate,
// valid parameters fail with an unauthorized error.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	opts.Size = 0
	if r.Gate == nil {
		if err := r.Renderer.Validate(opts.Params); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeUnauthorized, "no account configured")
	}

	result, err := r.Render(ctx, opts)
	if err != nil {
		return nil, err
	}

	publishStart := time.Now()
	rec, err := r.Gate.Publish(ctx, result.PNG, opts.Params)
	result.Stats.PublishTime = time.Since(publishStart)
	if err != nil {
		return nil, err
	}
	result.Record = rec

	r.Logger.Info("published avatar",
		"uri", rec.URI,
		"render", result.Stats.RenderTime,
		"publish", result.Stats.PublishTime)
	return result, nil
}

// RenderWithCacheInfo renders params with the artifact cache and reports
// whether the PNG came from the cache. Cache failures are logged and
// treated as misses.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, params avatar.Params, refresh bool) ([]byte, bool, error) {
	if err := r.Renderer.Validate(params); err != nil {
		return nil, false, err
	}

	cacheKey, err := r.artifactKey(params)
	if err != nil {
		return nil, false, err
	}

	if !refresh {
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil {
			r.Logger.Warn("artifact cache read failed", "err", err)
		} else if hit {
			return data, true, nil
		}
	}

	rendered, err := r.Renderer.Render(ctx, params)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, rendered.PNG, cache.TTLArtifact); err != nil {
		r.Logger.Warn("artifact cache write failed", "err", err)
	}
	return rendered.PNG, false, nil
}

func (r *Runner) artifactKey(params avatar.Params) (string, error) {
	paramsHash, err := cache.HashJSON(params)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash params")
	}
	opts, err := r.Renderer.ArtifactKeyOpts(params)
	if err != nil {
		return "", err
	}
	return r.Keyer.ArtifactKey(paramsHash, opts), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
