package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryJournal keeps entries in memory, capped at a fixed number of entries.
type MemoryJournal struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
	max     int
	now     func() time.Time
}

// DefaultMemoryEntries bounds a MemoryJournal created with max <= 0.
const DefaultMemoryEntries = 1000

// NewMemoryJournal creates a journal holding at most max entries; the oldest
// are dropped first.
func NewMemoryJournal(max int) *MemoryJournal {
	if max <= 0 {
		max = DefaultMemoryEntries
	}
	return &MemoryJournal{entries: make(map[string]*Entry), max: max, now: time.Now}
}

func (j *MemoryJournal) Begin(_ context.Context, did, blobHash string) (*Entry, error) {
	e := &Entry{
		ID:        uuid.NewString(),
		DID:       did,
		BlobHash:  blobHash,
		StartedAt: j.now(),
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[e.ID] = e
	j.order = append(j.order, e.ID)
	for len(j.order) > j.max {
		delete(j.entries, j.order[0])
		j.order = j.order[1:]
	}
	cp := *e
	return &cp, nil
}

func (j *MemoryJournal) Advance(_ context.Context, id, stage string, patch Patch) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id]
	if !ok {
		return fmt.Errorf("journal entry %s not found", id)
	}
	e.Stage = stage
	if patch.BlobCID != "" {
		e.BlobCID = patch.BlobCID
	}
	if patch.RecordURI != "" {
		e.RecordURI = patch.RecordURI
	}
	return nil
}

func (j *MemoryJournal) Finish(_ context.Context, id string, err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id]
	if !ok {
		return fmt.Errorf("journal entry %s not found", id)
	}
	now := j.now()
	e.FinishedAt = &now
	if err != nil {
		e.Error = err.Error()
	}
	return nil
}

func (j *MemoryJournal) Recent(_ context.Context, n int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n <= 0 || n > len(j.order) {
		n = len(j.order)
	}
	out := make([]Entry, 0, n)
	for i := len(j.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *j.entries[j.order[i]])
	}
	return out, nil
}

var _ Journal = (*MemoryJournal)(nil)
