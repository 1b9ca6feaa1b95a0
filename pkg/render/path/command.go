// Package path parses SVG path data into absolute drawing commands and
// replays them onto a drawing target.
//
// Parsing resolves every relative command against the running current point,
// so consumers only ever see absolute coordinates. Curves keep their control
// points; flattening is left to the target.
//
// Commands the package does not draw (elliptical arcs, smooth curves and any
// unknown letter) parse into [Unsupported] and are skipped by [Replay] with a
// warning, so a cosmetic fragment never aborts a render:
//
//	cmds, err := path.Parse("M 10 10 h 80 v 80 h -80 z")
//	if err != nil {
//	    return err // malformed number or argument count
//	}
//	skipped := path.Replay(target, cmds, logger)
package path

import "fmt"

// Command is one absolute drawing instruction. The concrete types are
// [MoveTo], [LineTo], [HorizontalLineTo], [VerticalLineTo], [CubicTo],
// [QuadTo], [ClosePath] and [Unsupported].
type Command interface {
	// Verb returns the SVG command letter in absolute (uppercase) form.
	Verb() byte
	fmt.Stringer
}

// MoveTo starts a new subpath at (X, Y).
type MoveTo struct{ X, Y float64 }

// LineTo draws a straight segment to (X, Y).
type LineTo struct{ X, Y float64 }

// HorizontalLineTo draws a horizontal segment to column X, keeping the
// current y.
type HorizontalLineTo struct{ X float64 }

// VerticalLineTo draws a vertical segment to row Y, keeping the current x.
type VerticalLineTo struct{ Y float64 }

// CubicTo draws a cubic Bézier curve with controls (X1, Y1), (X2, Y2) to (X, Y).
type CubicTo struct{ X1, Y1, X2, Y2, X, Y float64 }

// QuadTo draws a quadratic Bézier curve with control (X1, Y1) to (X, Y).
type QuadTo struct{ X1, Y1, X, Y float64 }

// ClosePath closes the current subpath.
type ClosePath struct{}

// Unsupported is a command that was parsed but cannot be drawn. Letter is the
// command letter as written (case preserved) and Args its raw numeric
// arguments.
type Unsupported struct {
	Letter byte
	Args   []float64
}

func (MoveTo) Verb() byte           { return 'M' }
func (LineTo) Verb() byte           { return 'L' }
func (HorizontalLineTo) Verb() byte { return 'H' }
func (VerticalLineTo) Verb() byte   { return 'V' }
func (CubicTo) Verb() byte          { return 'C' }
func (QuadTo) Verb() byte           { return 'Q' }
func (ClosePath) Verb() byte        { return 'Z' }
func (u Unsupported) Verb() byte    { return upper(u.Letter) }

func (c MoveTo) String() string           { return fmt.Sprintf("M %g %g", c.X, c.Y) }
func (c LineTo) String() string           { return fmt.Sprintf("L %g %g", c.X, c.Y) }
func (c HorizontalLineTo) String() string { return fmt.Sprintf("H %g", c.X) }
func (c VerticalLineTo) String() string   { return fmt.Sprintf("V %g", c.Y) }
func (c CubicTo) String() string {
	return fmt.Sprintf("C %g %g %g %g %g %g", c.X1, c.Y1, c.X2, c.Y2, c.X, c.Y)
}
func (c QuadTo) String() string  { return fmt.Sprintf("Q %g %g %g %g", c.X1, c.Y1, c.X, c.Y) }
func (ClosePath) String() string { return "Z" }
func (u Unsupported) String() string {
	return fmt.Sprintf("%c %v (unsupported)", u.Letter, u.Args)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
