// Package compose draws avatars: background, rotated shape, then the eyes and
// mouth overlays shifted in the direction of the rotation.
package compose

import (
	"image"
	"math"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/render/path"
	"github.com/nornoe/skyavatar/pkg/render/raster"
)

const (
	// OffsetIntensity is the distance in pixels the overlays slide along the
	// tilt direction.
	OffsetIntensity = 20.0

	// OverlayScale is the scale applied to overlays about the canvas centre.
	OverlayScale = 1.2
)

// Rendered is a finished avatar.
type Rendered struct {
	Image *image.RGBA
	PNG   []byte

	// Skipped counts unsupported path commands left out of the shape.
	Skipped int
}

// Offset returns the overlay translation for a rotation in degrees. At zero
// rotation the overlays move straight down by [OffsetIntensity].
func Offset(rotation float64) (dx, dy float64) {
	sin, cos := math.Sincos(rotation * math.Pi / 180)
	return -sin * OffsetIntensity, cos * OffsetIntensity
}

// Compose draws one avatar. shapePath is SVG path data; eyes and mouth are
// overlay rasters, drawn centred on the canvas. Parameter validation against
// the shape and asset catalogs is the caller's job; Compose only rejects
// colors and path data it cannot draw.
func Compose(p avatar.Params, shapePath string, eyes, mouth image.Image, logger *log.Logger) (*Rendered, error) {
	bg, err := raster.ParseHexColor(p.Background)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBackground, err, "invalid background")
	}
	fill, err := raster.ParseHexColor(p.Color)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid color")
	}
	cmds, err := path.Parse(shapePath)
	if err != nil {
		return nil, err
	}

	c := raster.New(avatar.Size, avatar.Size)
	c.Clear(bg)

	st := raster.NewStack()

	rot := raster.RotateAbout(p.Rotation*math.Pi/180, avatar.Center, avatar.Center)
	st = st.Then(rot)
	shape := c.NewPath(st)
	skipped := path.Replay(shape, cmds, logger)
	c.Fill(shape, fill)
	st = st.Then(rot.Invert())

	dx, dy := Offset(p.Rotation)
	st = st.Then(raster.Translate(dx, dy))
	drawOverlay(c, eyes, st)
	drawOverlay(c, mouth, st)
	// st is a value: the offset and the outer scope end here.

	data, err := c.EncodePNG()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode avatar")
	}
	return &Rendered{Image: c.Image(), PNG: data, Skipped: skipped}, nil
}

// drawOverlay draws img centred on the canvas, scaled by OverlayScale, in a
// scope of its own.
func drawOverlay(c *raster.Canvas, img image.Image, st raster.Stack) {
	if img == nil {
		return
	}
	b := img.Bounds()
	scoped := st.Push().
		Then(raster.Translate(avatar.Center, avatar.Center)).
		Then(raster.Scale(OverlayScale, OverlayScale)).
		Then(raster.Translate(-float64(b.Min.X)-float64(b.Dx())/2, -float64(b.Min.Y)-float64(b.Dy())/2))
	c.DrawImage(img, scoped)
}
