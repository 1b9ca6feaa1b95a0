package compose

import (
	"context"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/cache"
	"github.com/nornoe/skyavatar/pkg/observability"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

// Renderer validates parameters, resolves the shape and overlay layers, and
// composes the avatar. It is safe for concurrent use.
type Renderer struct {
	Layers *overlay.Layers
	Logger *log.Logger
}

// NewRenderer creates a renderer. A nil layers source uses the embedded
// assets without caching.
func NewRenderer(layers *overlay.Layers, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	if layers == nil {
		layers = overlay.NewLayers(nil, nil, nil, logger)
	}
	return &Renderer{Layers: layers, Logger: logger}
}

// Validate checks p against the shape table and the overlay store.
func (r *Renderer) Validate(p avatar.Params) error {
	return p.Validate(r.Layers.Store)
}

// Render validates p and draws it.
func (r *Renderer) Render(ctx context.Context, p avatar.Params) (out *Rendered, err error) {
	if err := r.Validate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, p.Shape)
	defer func() {
		observability.Render().OnRenderComplete(ctx, p.Shape, time.Since(start), err)
	}()

	shapePath, err := avatar.ShapePath(p.Shape)
	if err != nil {
		return nil, err
	}

	var eyes, mouth image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		eyes, err = r.Layers.Image(gctx, overlay.Eyes, p.Eyes, avatar.Size)
		return err
	})
	g.Go(func() (err error) {
		mouth, err = r.Layers.Image(gctx, overlay.Mouth, p.Mouth, avatar.Size)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out, err = Compose(p, shapePath, eyes, mouth, r.Logger)
	if err != nil {
		return nil, err
	}
	if out.Skipped > 0 {
		observability.Render().OnPathSkipped(ctx, p.Shape, out.Skipped)
	}
	r.Logger.Debug("rendered avatar", "shape", p.Shape, "rotation", p.Rotation, "bytes", len(out.PNG))
	return out, nil
}

// ArtifactKeyOpts returns the overlay inputs that, together with p,
// determine the rendered bytes.
func (r *Renderer) ArtifactKeyOpts(p avatar.Params) (cache.ArtifactKeyOpts, error) {
	eyes, err := r.Layers.AssetHash(overlay.Eyes, p.Eyes)
	if err != nil {
		return cache.ArtifactKeyOpts{}, err
	}
	mouth, err := r.Layers.AssetHash(overlay.Mouth, p.Mouth)
	if err != nil {
		return cache.ArtifactKeyOpts{}, err
	}
	return cache.ArtifactKeyOpts{EyesHash: eyes, MouthHash: mouth, Size: avatar.Size}, nil
}
