package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
	light = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

func scenarioParams() avatar.Params {
	return avatar.Params{
		Background: "#000",
		Shape:      "circle",
		Eyes:       "round",
		Mouth:      "smile",
		Color:      "#ff0000",
		Rotation:   45,
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		rotation float64
		dx, dy   float64
	}{
		{0, 0, 20},
		{90, -20, 0},
		{180, 0, -20},
		{270, 20, 0},
		{45, -20 / math.Sqrt2, 20 / math.Sqrt2},
	}
	for _, tt := range tests {
		dx, dy := Offset(tt.rotation)
		if math.Abs(dx-tt.dx) > 1e-9 || math.Abs(dy-tt.dy) > 1e-9 {
			t.Errorf("Offset(%v) = (%v, %v), want (%v, %v)", tt.rotation, dx, dy, tt.dx, tt.dy)
		}
	}
}

func TestRenderScenario(t *testing.T) {
	r := NewRenderer(nil, nil)
	out, err := r.Render(context.Background(), scenarioParams())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 512 {
		t.Errorf("bounds = %v, want 512x512", b)
	}
	if out.Skipped != 0 {
		t.Errorf("Skipped = %d", out.Skipped)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := NewRenderer(nil, nil)
	ctx := context.Background()

	for _, rot := range []float64{0, 45, 123.4, 359} {
		p := scenarioParams()
		p.Rotation = rot
		a, err := r.Render(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		b, err := r.Render(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.PNG, b.PNG) {
			t.Errorf("rotation %v: PNG output differs between runs", rot)
		}
	}
}

func TestRenderLayers(t *testing.T) {
	r := NewRenderer(nil, nil)
	p := scenarioParams()
	p.Rotation = 0

	out, err := r.Render(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}

	// corner is outside the circle
	if got := out.Image.RGBAAt(8, 8); got != black {
		t.Errorf("corner = %v, want background %v", got, black)
	}
	// between the eyes and above the mouth only the shape shows
	if got := out.Image.RGBAAt(256, 256); got != red {
		t.Errorf("centre = %v, want shape color %v", got, red)
	}
}

func TestComposeRotationMovesShape(t *testing.T) {
	// a square rotated by 45 degrees exposes its former corners
	p := avatar.Params{Background: "#ccc", Color: "#ff0000", Rotation: 0}
	square, _ := avatar.ShapePath("square")

	flat, err := Compose(p, square, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.Rotation = 45
	tilted, err := Compose(p, square, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if got := flat.Image.RGBAAt(90, 90); got != red {
		t.Errorf("unrotated corner = %v, want %v", got, red)
	}
	if got := tilted.Image.RGBAAt(90, 90); got != light {
		t.Errorf("rotated corner = %v, want background %v", got, light)
	}
	// the centre stays covered
	if got := tilted.Image.RGBAAt(256, 256); got != red {
		t.Errorf("rotated centre = %v, want %v", got, red)
	}
}

func TestComposeOverlayOffset(t *testing.T) {
	// a small opaque dot at the overlay centre lands at centre + offset
	dot := image.NewRGBA(image.Rect(0, 0, 512, 512))
	for y := 246; y < 266; y++ {
		for x := 246; x < 266; x++ {
			dot.SetRGBA(x, y, color.RGBA{B: 0xff, A: 0xff})
		}
	}
	blue := color.RGBA{B: 0xff, A: 0xff}
	square, _ := avatar.ShapePath("square")

	p := avatar.Params{Background: "#000", Color: "#ff0000", Rotation: 0}
	out, err := Compose(p, square, dot, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Image.RGBAAt(256, 276); got != blue {
		t.Errorf("offset dot at rotation 0 = %v, want %v", got, blue)
	}
	if got := out.Image.RGBAAt(256, 250); got == blue {
		t.Error("dot should have moved down by the offset")
	}

	p.Rotation = 90
	out, err = Compose(p, square, dot, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Image.RGBAAt(236, 256); got != blue {
		t.Errorf("offset dot at rotation 90 = %v, want %v", got, blue)
	}
}

func TestComposePartialPath(t *testing.T) {
	// the arc is skipped, the rest of the square still fills
	p := avatar.Params{Background: "#000", Color: "#ff0000"}
	out, err := Compose(p, "M 76 76 H 436 A 10 10 0 0 1 436 100 V 436 H 76 Z", nil, nil, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if out.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", out.Skipped)
	}
	if got := out.Image.RGBAAt(256, 256); got != red {
		t.Errorf("centre = %v, want %v", got, red)
	}
}

func TestComposeErrors(t *testing.T) {
	good := avatar.Params{Background: "#000", Color: "#ff0000"}
	square, _ := avatar.ShapePath("square")

	if _, err := Compose(good, "L 1 1 ?", nil, nil, nil); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("bad path error = %v", err)
	}
	bad := good
	bad.Color = "red"
	if _, err := Compose(bad, square, nil, nil, nil); !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("bad color error = %v", err)
	}
	bad = good
	bad.Background = "black"
	if _, err := Compose(bad, square, nil, nil, nil); !errors.Is(err, errors.ErrCodeInvalidBackground) {
		t.Errorf("bad background error = %v", err)
	}
}

func TestRenderRejectsBeforeDrawing(t *testing.T) {
	r := NewRenderer(overlay.NewLayers(overlay.Default(), nil, nil, nil), nil)
	p := scenarioParams()
	p.Eyes = "laser"
	if _, err := r.Render(context.Background(), p); !errors.Is(err, errors.ErrCodeInvalidAsset) {
		t.Errorf("Render error = %v, want INVALID_ASSET", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	r := NewRenderer(nil, nil)
	a, err := r.ArtifactKeyOpts(scenarioParams())
	if err != nil {
		t.Fatal(err)
	}
	p := scenarioParams()
	p.Mouth = "frown"
	b, _ := r.ArtifactKeyOpts(p)
	if a.EyesHash != b.EyesHash || a.MouthHash == b.MouthHash {
		t.Errorf("unexpected key opts %+v %+v", a, b)
	}
	if a.Size != 512 {
		t.Errorf("Size = %d", a.Size)
	}
}
