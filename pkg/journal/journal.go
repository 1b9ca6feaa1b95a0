// Package journal records publish attempts.
//
// A publish runs several external writes in sequence and none of them can be
// rolled back. The journal keeps one entry per attempt with the last stage
// the attempt committed, so a partially applied publish can be found and
// finished by hand.
package journal

import (
	"context"
	"time"
)

// Entry is one publish attempt.
type Entry struct {
	ID         string     `json:"id" bson:"_id"`
	DID        string     `json:"did" bson:"did"`
	BlobHash   string     `json:"blobHash" bson:"blob_hash"`
	Stage      string     `json:"stage" bson:"stage"`
	BlobCID    string     `json:"blobCid,omitempty" bson:"blob_cid,omitempty"`
	RecordURI  string     `json:"recordUri,omitempty" bson:"record_uri,omitempty"`
	Error      string     `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt" bson:"started_at"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" bson:"finished_at,omitempty"`
}

// Done reports whether the attempt has finished, successfully or not.
func (e *Entry) Done() bool { return e.FinishedAt != nil }

// Patch carries the values a stage produced. Empty fields are left unchanged.
type Patch struct {
	BlobCID   string
	RecordURI string
}

// Journal stores publish attempts.
type Journal interface {
	// Begin opens a new entry for did publishing the blob with blobHash.
	Begin(ctx context.Context, did, blobHash string) (*Entry, error)

	// Advance records that the attempt committed stage.
	Advance(ctx context.Context, id, stage string, patch Patch) error

	// Finish closes the entry. A nil err marks success.
	Finish(ctx context.Context, id string, err error) error

	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Begin(_ context.Context, did, blobHash string) (*Entry, error) {
	return &Entry{DID: did, BlobHash: blobHash}, nil
}
func (Nop) Advance(context.Context, string, string, Patch) error { return nil }
func (Nop) Finish(context.Context, string, error) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error)         { return nil, nil }

var _ Journal = Nop{}
