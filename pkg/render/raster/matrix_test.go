package raster

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestMatrixTransformPoint(t *testing.T) {
	tests := []struct {
		name   string
		m      Matrix
		x, y   float64
		wx, wy float64
	}{
		{"identity", Identity(), 3, 4, 3, 4},
		{"translate", Translate(10, -5), 3, 4, 13, -1},
		{"scale", Scale(2, 3), 3, 4, 6, 12},
		{"rotate 90", Rotate(math.Pi / 2), 1, 0, 0, 1},
		{"rotate about center", RotateAbout(math.Pi, 256, 256), 256, 56, 256, 456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.m.TransformPoint(tt.x, tt.y)
			if !near(x, tt.wx) || !near(y, tt.wy) {
				t.Errorf("TransformPoint(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, x, y, tt.wx, tt.wy)
			}
		})
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// other is applied first: scale then translate
	m := Translate(10, 0).Multiply(Scale(2, 2))
	x, y := m.TransformPoint(1, 1)
	if !near(x, 12) || !near(y, 2) {
		t.Errorf("got (%v, %v), want (12, 2)", x, y)
	}
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := Translate(256, 256).Multiply(Rotate(0.7)).Multiply(Scale(1.2, 0.8)).Multiply(Translate(-256, -256))
	id := m.Multiply(m.Invert())

	want := Identity()
	for i, pair := range [][2]float64{
		{id.A, want.A}, {id.B, want.B}, {id.C, want.C},
		{id.D, want.D}, {id.E, want.E}, {id.F, want.F},
	} {
		if math.Abs(pair[0]-pair[1]) > 1e-6 {
			t.Errorf("component %d = %v, want %v", i, pair[0], pair[1])
		}
	}
}

func TestMatrixInvertSingular(t *testing.T) {
	if got := Scale(0, 1).Invert(); !got.IsIdentity() {
		t.Errorf("singular Invert() = %+v, want identity", got)
	}
}

func TestMatrixAff3(t *testing.T) {
	m := Matrix{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	a := m.Aff3()
	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		if a[i] != want {
			t.Errorf("Aff3()[%d] = %v, want %v", i, a[i], want)
		}
	}
}
