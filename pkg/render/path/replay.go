package path

import "github.com/charmbracelet/log"

// Drawer receives drawing primitives in absolute coordinates.
// *raster.Path implements it.
type Drawer interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadTo(cx, cy, x, y float64)
	CubeTo(c1x, c1y, c2x, c2y, x, y float64)
	ClosePath()
}

// Replay issues cmds to d in order and returns how many commands were
// skipped. Unsupported commands are logged at warn level and skipped; the
// remaining commands still draw. logger may be nil.
func Replay(d Drawer, cmds []Command, logger *log.Logger) int {
	var cx, cy, sx, sy float64
	skipped := 0

	for i, cmd := range cmds {
		switch c := cmd.(type) {
		case MoveTo:
			d.MoveTo(c.X, c.Y)
			cx, cy, sx, sy = c.X, c.Y, c.X, c.Y
		case LineTo:
			d.LineTo(c.X, c.Y)
			cx, cy = c.X, c.Y
		case HorizontalLineTo:
			d.LineTo(c.X, cy)
			cx = c.X
		case VerticalLineTo:
			d.LineTo(cx, c.Y)
			cy = c.Y
		case CubicTo:
			d.CubeTo(c.X1, c.Y1, c.X2, c.Y2, c.X, c.Y)
			cx, cy = c.X, c.Y
		case QuadTo:
			d.QuadTo(c.X1, c.Y1, c.X, c.Y)
			cx, cy = c.X, c.Y
		case ClosePath:
			d.ClosePath()
			cx, cy = sx, sy
		default:
			skipped++
			if logger != nil {
				logger.Warn("skipping unsupported path command", "index", i, "command", cmd.String())
			}
		}
	}
	return skipped
}
