package overlay

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/nornoe/skyavatar/pkg/errors"
)

func TestDefaultNames(t *testing.T) {
	s := Default()

	if got, want := s.Names(Eyes), []string{"round", "sleepy", "star", "wink"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names(eyes) = %v, want %v", got, want)
	}
	if got, want := s.Names(Mouth), []string{"flat", "frown", "open", "smile"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names(mouth) = %v, want %v", got, want)
	}
}

func TestLookup(t *testing.T) {
	s := Default()

	data, err := s.Lookup(Eyes, "round")
	if err != nil {
		t.Fatalf("Lookup(eyes, round): %v", err)
	}
	if len(data) == 0 {
		t.Error("Lookup returned empty data")
	}
	if !s.Has(Mouth, "smile") {
		t.Error("Has(mouth, smile) = false")
	}
}

func TestLookupRejects(t *testing.T) {
	s := Default()

	tests := []struct {
		name string
		kind Kind
		key  string
	}{
		{"unknown name", Eyes, "laser"},
		{"empty name", Mouth, ""},
		{"traversal", Eyes, "../mouth/smile"},
		{"unknown kind", Kind("nose"), "round"},
		{"wrong kind", Mouth, "round"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Lookup(tt.kind, tt.key)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidAsset) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidAsset)
			}
			if s.Has(tt.kind, tt.key) {
				t.Error("Has should be false")
			}
		})
	}

	_, err := s.Lookup(Eyes, "laser")
	if !stderrors.Is(err, ErrUnknownAsset) {
		t.Errorf("unknown asset should wrap ErrUnknownAsset, got %v", err)
	}
}

func TestStoreLayerOrder(t *testing.T) {
	top := fstest.MapFS{
		"eyes/round.svg":  {Data: []byte("<svg>top</svg>")},
		"eyes/custom.svg": {Data: []byte("<svg>custom</svg>")},
		"eyes/README.md":  {Data: []byte("ignored")},
	}
	bottom := fstest.MapFS{
		"eyes/round.svg": {Data: []byte("<svg>bottom</svg>")},
		"eyes/star.svg":  {Data: []byte("<svg>star</svg>")},
	}
	s := NewStore(top, bottom)

	got, err := s.Lookup(Eyes, "round")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<svg>top</svg>" {
		t.Errorf("earlier layer should win, got %q", got)
	}
	if want := []string{"custom", "round", "star"}; !reflect.DeepEqual(s.Names(Eyes), want) {
		t.Errorf("Names = %v, want %v", s.Names(Eyes), want)
	}
	if len(s.Names(Mouth)) != 0 {
		t.Errorf("Names(mouth) = %v, want none", s.Names(Mouth))
	}
}

func TestWithDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "mouth"), 0o755); err != nil {
		t.Fatal(err)
	}
	custom := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 512 512"><circle cx="256" cy="300" r="10"/></svg>`)
	if err := os.WriteFile(filepath.Join(dir, "mouth", "dot.svg"), custom, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := WithDir(dir)
	if err != nil {
		t.Fatalf("WithDir: %v", err)
	}
	if !s.Has(Mouth, "dot") {
		t.Error("directory asset should be visible")
	}
	if !s.Has(Mouth, "smile") {
		t.Error("embedded assets should remain visible")
	}

	if _, err := WithDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("WithDir should fail for a missing directory")
	}
	if s, err := WithDir(""); err != nil || !s.Has(Eyes, "round") {
		t.Errorf("WithDir(\"\") should return the default store, err %v", err)
	}
}
