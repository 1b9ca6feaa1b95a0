package path

import (
	"fmt"
	"strconv"

	"github.com/nornoe/skyavatar/pkg/errors"
)

// SyntaxError reports malformed path data.
type SyntaxError struct {
	Offset int // byte offset into the path string
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("path syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parse converts SVG path data into absolute commands.
//
// Malformed input (no leading command, a bad number, or the wrong number of
// arguments for a drawable command) returns a *SyntaxError wrapped with
// [errors.ErrCodeInvalidPath]. Letters the package cannot draw are returned
// as [Unsupported] rather than failing.
func Parse(d string) ([]Command, error) {
	p := &parser{src: d}
	cmds, err := p.parse()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid shape path")
	}
	return cmds, nil
}

// MustParse is like Parse but panics on error. It is meant for built-in
// shape tables.
func MustParse(d string) []Command {
	cmds, err := Parse(d)
	if err != nil {
		panic(err)
	}
	return cmds
}

type parser struct {
	src string
	pos int

	cx, cy float64 // current point
	sx, sy float64 // start of current subpath
	out    []Command
}

func (p *parser) parse() ([]Command, error) {
	p.skipSeparators()
	if p.pos >= len(p.src) {
		return nil, p.errorf("empty path")
	}
	if !isLetter(p.src[p.pos]) {
		return nil, p.errorf("path must start with a command, got %q", p.src[p.pos])
	}

	for {
		p.skipSeparators()
		if p.pos >= len(p.src) {
			return p.out, nil
		}
		start := p.pos
		letter := p.src[p.pos]
		if !isLetter(letter) {
			return nil, p.errorf("expected command, got %q", letter)
		}
		p.pos++

		args, err := p.numbers()
		if err != nil {
			return nil, err
		}
		if err := p.emit(start, letter, args); err != nil {
			return nil, err
		}
	}
}

// emit appends the absolute commands for one command letter and its
// arguments, repeating the command for extra argument groups.
func (p *parser) emit(offset int, letter byte, args []float64) error {
	rel := letter >= 'a' && letter <= 'z'
	verb := upper(letter)

	arity, drawable := arities[verb]
	if !drawable {
		p.out = append(p.out, Unsupported{Letter: letter, Args: args})
		p.skipEndpoint(verb, rel, args)
		return nil
	}
	if arity == 0 {
		if len(args) != 0 {
			return &SyntaxError{Offset: offset, Msg: fmt.Sprintf("%c takes no arguments", letter)}
		}
		p.out = append(p.out, ClosePath{})
		p.cx, p.cy = p.sx, p.sy
		return nil
	}
	if len(args) == 0 || len(args)%arity != 0 {
		return &SyntaxError{
			Offset: offset,
			Msg:    fmt.Sprintf("%c needs a multiple of %d arguments, got %d", letter, arity, len(args)),
		}
	}

	for i := 0; i < len(args); i += arity {
		a := args[i : i+arity]
		ox, oy := 0.0, 0.0
		if rel {
			ox, oy = p.cx, p.cy
		}
		switch verb {
		case 'M':
			x, y := a[0]+ox, a[1]+oy
			if i == 0 {
				p.out = append(p.out, MoveTo{X: x, Y: y})
				p.sx, p.sy = x, y
			} else {
				// extra pairs after a move are implicit line-tos
				p.out = append(p.out, LineTo{X: x, Y: y})
			}
			p.cx, p.cy = x, y
		case 'L':
			x, y := a[0]+ox, a[1]+oy
			p.out = append(p.out, LineTo{X: x, Y: y})
			p.cx, p.cy = x, y
		case 'H':
			x := a[0] + ox
			p.out = append(p.out, HorizontalLineTo{X: x})
			p.cx = x
		case 'V':
			y := a[0] + oy
			p.out = append(p.out, VerticalLineTo{Y: y})
			p.cy = y
		case 'C':
			c := CubicTo{
				X1: a[0] + ox, Y1: a[1] + oy,
				X2: a[2] + ox, Y2: a[3] + oy,
				X: a[4] + ox, Y: a[5] + oy,
			}
			p.out = append(p.out, c)
			p.cx, p.cy = c.X, c.Y
		case 'Q':
			q := QuadTo{
				X1: a[0] + ox, Y1: a[1] + oy,
				X: a[2] + ox, Y: a[3] + oy,
			}
			p.out = append(p.out, q)
			p.cx, p.cy = q.X, q.Y
		}
	}
	return nil
}

// arities lists the argument group size of every drawable command.
var arities = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'Q': 4, 'Z': 0,
}

// endpoints gives the group size and endpoint position of commands that
// are parsed but not drawn, so later relative commands stay anchored.
var endpoints = map[byte]struct{ group, x int }{
	'A': {7, 5},
	'S': {4, 2},
	'T': {2, 0},
}

func (p *parser) skipEndpoint(verb byte, rel bool, args []float64) {
	ep, ok := endpoints[verb]
	if !ok || len(args) == 0 || len(args)%ep.group != 0 {
		return
	}
	for i := 0; i < len(args); i += ep.group {
		x, y := args[i+ep.x], args[i+ep.x+1]
		if rel {
			x, y = x+p.cx, y+p.cy
		}
		p.cx, p.cy = x, y
	}
}

// numbers reads every number up to the next command letter.
func (p *parser) numbers() ([]float64, error) {
	var nums []float64
	for {
		p.skipSeparators()
		if p.pos >= len(p.src) || !startsNumber(p.src[p.pos]) {
			return nums, nil
		}
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
}

// number scans one number. A sign or a second decimal point ends the
// previous number, so "1-2" and ".5.5" each hold two numbers.
func (p *parser) number() (float64, error) {
	start := p.pos
	s := p.src
	i := p.pos

	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		p.pos = start
		return 0, p.errorf("malformed number")
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}

	v, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("malformed number %q", s[start:i])
	}
	p.pos = i
	return v, nil
}

func (p *parser) skipSeparators() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

func startsNumber(b byte) bool {
	return isDigit(b) || b == '.' || b == '+' || b == '-'
}
