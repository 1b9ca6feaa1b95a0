package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterize renders SVG source to a size×size PNG with a transparent
// background. The SVG viewBox is scaled to fit and centered.
func Rasterize(svg []byte, size int) ([]byte, error) {
	img, err := RasterizeImage(svg, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

// RasterizeImage is like Rasterize but returns the raster without encoding.
func RasterizeImage(svg []byte, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("overlay size must be positive, got %d", size)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse overlay svg: %w", err)
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(size), float64(size)
	}
	scale := float64(size) / max(w, h)
	outW, outH := w*scale, h*scale
	icon.SetTarget((float64(size)-outW)/2, (float64(size)-outH)/2, outW, outH)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}
