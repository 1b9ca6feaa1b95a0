package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Canvas is a fixed-size RGBA drawing surface. It keeps no transform or fill
// state of its own: every drawing call takes the transform stack and color
// explicitly.
type Canvas struct {
	img *image.RGBA
}

// New creates a transparent canvas of w x h pixels.
func New(w, h int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Image returns the backing image. Callers must not retain it across
// further drawing calls if they need a stable snapshot.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Clear replaces every pixel with col.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// NewPath starts an empty path whose coordinates are mapped through the top
// of stack as they are added.
func (c *Canvas) NewPath(stack Stack) *Path {
	b := c.img.Bounds()
	return &Path{
		r: vector.NewRasterizer(b.Dx(), b.Dy()),
		m: stack.Top(),
	}
}

// Fill composites the area enclosed by p onto the canvas with col. Open
// subpaths are closed implicitly.
func (c *Canvas) Fill(p *Path, col color.Color) {
	p.closeOpen()
	if !p.drawn {
		return
	}
	p.r.DrawOp = draw.Over
	p.r.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

// DrawImage composites img onto the canvas, mapping image coordinates
// through the top of stack with bilinear sampling.
func (c *Canvas) DrawImage(img image.Image, stack Stack) {
	draw.BiLinear.Transform(c.img, stack.Top().Aff3(), img, img.Bounds(), draw.Over, nil)
}

// EncodePNG encodes the canvas as PNG. The encoding is deterministic for a
// given pixel buffer.
func (c *Canvas) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Path accumulates a transformed outline for a single fill.
type Path struct {
	r       *vector.Rasterizer
	m       Matrix
	open    bool // current subpath has segments and is not closed
	started bool // a MoveTo has been issued
	drawn   bool // at least one segment was added
}

// MoveTo starts a new subpath at (x, y), closing the previous one if needed.
func (p *Path) MoveTo(x, y float64) {
	p.closeOpen()
	tx, ty := p.m.TransformPoint(x, y)
	p.r.MoveTo(float32(tx), float32(ty))
	p.started = true
}

// LineTo adds a straight segment to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.ensureStarted()
	tx, ty := p.m.TransformPoint(x, y)
	p.r.LineTo(float32(tx), float32(ty))
	p.open, p.drawn = true, true
}

// QuadTo adds a quadratic Bézier segment with control (cx, cy) ending at (x, y).
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.ensureStarted()
	tcx, tcy := p.m.TransformPoint(cx, cy)
	tx, ty := p.m.TransformPoint(x, y)
	p.r.QuadTo(float32(tcx), float32(tcy), float32(tx), float32(ty))
	p.open, p.drawn = true, true
}

// CubeTo adds a cubic Bézier segment with controls (c1x, c1y) and (c2x, c2y)
// ending at (x, y).
func (p *Path) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.ensureStarted()
	t1x, t1y := p.m.TransformPoint(c1x, c1y)
	t2x, t2y := p.m.TransformPoint(c2x, c2y)
	tx, ty := p.m.TransformPoint(x, y)
	p.r.CubeTo(float32(t1x), float32(t1y), float32(t2x), float32(t2y), float32(tx), float32(ty))
	p.open, p.drawn = true, true
}

// ClosePath closes the current subpath with a straight segment to its start.
func (p *Path) ClosePath() {
	if p.open {
		p.r.ClosePath()
		p.open = false
	}
}

func (p *Path) closeOpen() {
	if p.open {
		p.r.ClosePath()
		p.open = false
	}
}

func (p *Path) ensureStarted() {
	if !p.started {
		p.MoveTo(0, 0)
	}
}

// ParseHexColor parses "#RRGGBB" or "#RGB" into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) == 0 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color %q: missing leading #", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want 3 or 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
