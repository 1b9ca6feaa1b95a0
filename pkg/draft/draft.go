// Package draft persists the last avatar parameters a user entered, so an
// unfinished avatar survives between CLI runs.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/avatar"
)

// Key is the fixed slot drafts are stored under.
const Key = "avatar-draft"

// Store saves and loads the single draft slot.
type Store interface {
	Save(ctx context.Context, p avatar.Params) error
	// Load returns nil, nil when there is no usable draft.
	Load(ctx context.Context) (*avatar.Params, error)
	Clear(ctx context.Context) error
}

// FileStore keeps the draft as a JSON file in a directory.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	logger *log.Logger
}

// NewFileStore creates a store. If dir is empty, defaults to
// ~/.config/skyavatar/.
func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "skyavatar")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the draft file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, Key+".json")
}

// Save overwrites the draft. Drafts are saved as entered; validation
// happens when they are rendered.
func (s *FileStore) Save(_ context.Context, p avatar.Params) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

// Load reads the draft. A missing, unreadable or corrupt draft is reported
// as no draft.
func (s *FileStore) Load(_ context.Context) (*avatar.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("ignoring unreadable draft", "path", s.Path(), "err", err)
		}
		return nil, nil
	}
	p, ok := decode(data)
	if !ok {
		s.logger.Warn("ignoring corrupt draft", "path", s.Path())
		return nil, nil
	}
	return p, nil
}

// Clear removes the draft.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove draft: %w", err)
	}
	return nil
}

// decode accepts a JSON object with every parameter present. Partial
// objects are corrupt: rendering them would silently fall back to zero
// values.
func decode(data []byte) (*avatar.Params, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, false
	}
	for _, k := range []string{"background", "shape", "eyes", "mouth", "color", "rotation"} {
		if _, ok := fields[k]; !ok {
			return nil, false
		}
	}
	var p avatar.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

var _ Store = (*FileStore)(nil)
