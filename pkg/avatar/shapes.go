package avatar

import (
	"sort"

	"github.com/nornoe/skyavatar/pkg/errors"
)

// shapes maps shape keys to SVG path data in canvas coordinates.
var shapes = map[string]string{
	"circle": "M 256 56 C 366.46 56 456 145.54 456 256 C 456 366.46 366.46 456 256 456 " +
		"C 145.54 456 56 366.46 56 256 C 56 145.54 145.54 56 256 56 Z",
	"square":   "M 76 76 H 436 V 436 H 76 Z",
	"rounded":  "M 136 56 H 376 Q 456 56 456 136 V 376 Q 456 456 376 456 H 136 Q 56 456 56 376 V 136 Q 56 56 136 56 Z",
	"triangle": "M 256 48 L 464 432 L 48 432 Z",
	"diamond":  "M256 40 l216 216 l-216 216 l-216 -216 z",
	"hexagon":  "M256 46 L437.87 151 V361 L256 466 L74.13 361 V151 Z",
	"heart": "M 256 440 C 96 330 40 240 56 160 C 72 90 150 60 200 90 C 230 108 248 130 256 150 " +
		"C 264 130 282 108 312 90 C 362 60 440 90 456 160 C 472 240 416 330 256 440 Z",
	"blob": "M 256 60 c 90 0 190 60 196 160 c 6 100 -60 200 -170 220 q -110 20 -180 -60 " +
		"c -60 -70 -50 -190 20 -260 c 40 -40 84 -60 134 -60 z",
}

// ShapePath returns the path data for a shape key.
func ShapePath(name string) (string, error) {
	d, ok := shapes[name]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", name)
	}
	return d, nil
}

// ShapeNames returns the supported shape keys, sorted.
func ShapeNames() []string {
	names := make([]string, 0, len(shapes))
	for n := range shapes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
