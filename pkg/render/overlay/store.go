// Package overlay provides the eyes and mouth overlay assets and turns them
// into raster layers for the compositor.
//
// Assets are SVG documents drawn on a 512×512 viewBox. A default set is
// embedded in the binary; a directory with the same layout
// (eyes/<name>.svg, mouth/<name>.svg) can add assets or replace defaults.
package overlay

import (
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/nornoe/skyavatar/pkg/errors"
)

// Kind selects an overlay family.
type Kind string

const (
	Eyes  Kind = "eyes"
	Mouth Kind = "mouth"
)

// Kinds lists every overlay kind in draw order.
var Kinds = []Kind{Eyes, Mouth}

// ErrUnknownAsset is wrapped by lookups of assets that do not exist.
var ErrUnknownAsset = stderrors.New("unknown overlay asset")

//go:embed assets
var embedded embed.FS

// Store resolves overlay assets by kind and name. Layers are searched in
// order, so earlier layers override later ones. A Store is read-only and
// safe for concurrent use.
type Store struct {
	layers []fs.FS
}

// NewStore returns a store over the given file systems, searched in order.
func NewStore(layers ...fs.FS) *Store {
	return &Store{layers: layers}
}

// Default returns a store holding only the embedded assets.
func Default() *Store {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return NewStore(sub)
}

// WithDir returns a store that looks in dir before the embedded assets. An
// empty dir returns [Default].
func WithDir(dir string) (*Store, error) {
	if dir == "" {
		return Default(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("overlay dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("overlay dir %s: not a directory", dir)
	}
	def := Default()
	return NewStore(append([]fs.FS{os.DirFS(dir)}, def.layers...)...), nil
}

// Lookup returns the SVG source of the named asset. Invalid or unknown names
// return an [errors.ErrCodeInvalidAsset] error.
func (s *Store) Lookup(kind Kind, name string) ([]byte, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := errors.ValidateKey(errors.ErrCodeInvalidAsset, string(kind), name); err != nil {
		return nil, err
	}

	p := path.Join(string(kind), name+".svg")
	for _, layer := range s.layers {
		data, err := fs.ReadFile(layer, p)
		if err == nil {
			return data, nil
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}
	return nil, errors.Wrap(errors.ErrCodeInvalidAsset, ErrUnknownAsset, "unknown %s %q", kind, name)
}

// Has reports whether the named asset exists.
func (s *Store) Has(kind Kind, name string) bool {
	_, err := s.Lookup(kind, name)
	return err == nil
}

// Names returns the sorted asset names available for kind.
func (s *Store) Names(kind Kind) []string {
	seen := make(map[string]bool)
	for _, layer := range s.layers {
		entries, err := fs.ReadDir(layer, string(kind))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".svg") {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ".svg")] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func checkKind(kind Kind) error {
	for _, k := range Kinds {
		if k == kind {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidAsset, "unknown overlay kind %q", kind)
}
