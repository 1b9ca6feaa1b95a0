package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
)

func TestCanvasClear(t *testing.T) {
	c := New(8, 8)
	c.Clear(black)
	if got := c.Image().RGBAAt(3, 3); got != black {
		t.Errorf("pixel = %v, want %v", got, black)
	}
}

func TestCanvasFillSquare(t *testing.T) {
	c := New(100, 100)
	c.Clear(black)

	p := c.NewPath(NewStack())
	p.MoveTo(10, 10)
	p.LineTo(90, 10)
	p.LineTo(90, 90)
	p.LineTo(10, 90)
	// left open: Fill closes it
	c.Fill(p, red)

	if got := c.Image().RGBAAt(50, 50); got != red {
		t.Errorf("inside pixel = %v, want %v", got, red)
	}
	if got := c.Image().RGBAAt(5, 5); got != black {
		t.Errorf("outside pixel = %v, want %v", got, black)
	}
}

func TestCanvasFillTransformed(t *testing.T) {
	c := New(100, 100)
	c.Clear(black)

	// unit square scaled up and moved into the lower right quadrant
	st := NewStack().Then(Translate(60, 60)).Then(Scale(30, 30))
	p := c.NewPath(st)
	p.MoveTo(0, 0)
	p.LineTo(1, 0)
	p.LineTo(1, 1)
	p.LineTo(0, 1)
	p.ClosePath()
	c.Fill(p, red)

	if got := c.Image().RGBAAt(75, 75); got != red {
		t.Errorf("pixel in transformed square = %v, want %v", got, red)
	}
	if got := c.Image().RGBAAt(20, 20); got != black {
		t.Errorf("pixel outside = %v, want %v", got, black)
	}
}

func TestCanvasFillMultipleSubpaths(t *testing.T) {
	c := New(100, 100)
	c.Clear(black)

	p := c.NewPath(NewStack())
	p.MoveTo(0, 0)
	p.LineTo(40, 0)
	p.LineTo(40, 40)
	p.LineTo(0, 40)
	p.MoveTo(60, 60)
	p.LineTo(100, 60)
	p.LineTo(100, 100)
	p.LineTo(60, 100)
	c.Fill(p, red)

	for _, pt := range []image.Point{{20, 20}, {80, 80}} {
		if got := c.Image().RGBAAt(pt.X, pt.Y); got != red {
			t.Errorf("pixel %v = %v, want %v", pt, got, red)
		}
	}
	if got := c.Image().RGBAAt(50, 20); got != black {
		t.Errorf("pixel between subpaths = %v, want %v", got, black)
	}
}

func TestCanvasFillEmptyPath(t *testing.T) {
	c := New(10, 10)
	c.Clear(black)
	c.Fill(c.NewPath(NewStack()), red)
	if got := c.Image().RGBAAt(5, 5); got != black {
		t.Errorf("empty fill changed pixel to %v", got)
	}
}

func TestCanvasDrawImage(t *testing.T) {
	c := New(100, 100)
	c.Clear(black)

	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			src.SetRGBA(x, y, red)
		}
	}
	c.DrawImage(src, NewStack().Then(Translate(40, 40)))

	if got := c.Image().RGBAAt(50, 50); got != red {
		t.Errorf("pixel under image = %v, want %v", got, red)
	}
	if got := c.Image().RGBAAt(10, 10); got != black {
		t.Errorf("pixel away from image = %v, want %v", got, black)
	}
}

func TestCanvasDrawImageTransparentKeepsBackground(t *testing.T) {
	c := New(10, 10)
	c.Clear(black)
	c.DrawImage(image.NewRGBA(image.Rect(0, 0, 10, 10)), NewStack())
	if got := c.Image().RGBAAt(5, 5); got != black {
		t.Errorf("transparent overlay changed pixel to %v", got)
	}
}

func TestCanvasEncodePNG(t *testing.T) {
	c := New(16, 16)
	c.Clear(red)

	b1, err := c.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	b2, _ := c.EncodePNG()
	if !bytes.Equal(b1, b2) {
		t.Error("EncodePNG should be deterministic")
	}

	img, err := png.Decode(bytes.NewReader(b1))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("decoded bounds = %v", img.Bounds())
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#000", color.RGBA{A: 0xff}, false},
		{"#ccc", color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}, false},
		{"#1a2B3c", color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, false},
		{"", color.RGBA{}, true},
		{"123456", color.RGBA{}, true},
		{"#12345", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
