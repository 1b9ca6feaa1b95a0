// Package archive reads and writes the avatar archive: one immutable record
// per published avatar, stored in the account's repository under
// [Collection].
package archive

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/atproto"
	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/errors"
)

// Collection is the NSID of archive records.
const Collection = "net.nornoe.avatarArchive"

// Page size bounds for [Browser.List].
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Entry is an archive record as stored in the repository.
type Entry struct {
	Type      string        `json:"$type"`
	CreatedAt string        `json:"createdAt"`
	Blob      EntryBlob     `json:"blob"`
	Meta      avatar.Params `json:"meta"`
}

// EntryBlob wraps the uploaded blob together with its MIME type.
type EntryBlob struct {
	Ref      atproto.Blob `json:"ref"`
	MimeType string       `json:"mimeType"`
}

// NewEntry builds the record appended after a successful profile update.
func NewEntry(createdAt time.Time, blob atproto.Blob, params avatar.Params) Entry {
	return Entry{
		Type:      Collection,
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
		Blob:      EntryBlob{Ref: blob, MimeType: blob.MimeType},
		Meta:      params,
	}
}

// Decode converts a listed record into an [avatar.ArchiveRecord].
func Decode(rec atproto.Record) (avatar.ArchiveRecord, error) {
	var e Entry
	if err := json.Unmarshal(rec.Value, &e); err != nil {
		return avatar.ArchiveRecord{}, fmt.Errorf("decode %s: %w", rec.URI, err)
	}
	if e.Type != Collection {
		return avatar.ArchiveRecord{}, fmt.Errorf("decode %s: unexpected $type %q", rec.URI, e.Type)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, e.CreatedAt)
	if err != nil {
		return avatar.ArchiveRecord{}, fmt.Errorf("decode %s: createdAt: %w", rec.URI, err)
	}
	if e.Blob.Ref.Ref.Link == "" {
		return avatar.ArchiveRecord{}, fmt.Errorf("decode %s: missing blob ref", rec.URI)
	}

	mime := e.Blob.MimeType
	if mime == "" {
		mime = e.Blob.Ref.MimeType
	}
	return avatar.ArchiveRecord{
		URI:       rec.URI,
		CID:       rec.CID,
		CreatedAt: createdAt,
		BlobRef: avatar.BlobRef{
			Type:     e.Blob.Ref.Type,
			Link:     e.Blob.Ref.Ref.Link,
			MimeType: mime,
			Size:     e.Blob.Ref.Size,
		},
		Meta: e.Meta,
	}, nil
}

// Repo is the part of the repository service the archive reads from.
// *atproto.Client implements it.
type Repo interface {
	DID(ctx context.Context) (string, error)
	ListRecords(ctx context.Context, repo, collection string, limit int, cursor string) (*atproto.ListRecordsOutput, error)
}

// Page is one page of decoded archive records. An empty Cursor means there
// are no further pages.
type Page struct {
	Records []avatar.ArchiveRecord `json:"records"`
	Cursor  string                 `json:"cursor"`
}

// Browser lists the archive of the configured account.
type Browser struct {
	Repo   Repo
	Logger *log.Logger
}

// NewBrowser creates a browser. A nil logger uses the default logger.
func NewBrowser(repo Repo, logger *log.Logger) *Browser {
	if logger == nil {
		logger = log.Default()
	}
	return &Browser{Repo: repo, Logger: logger}
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// List returns one page. Records that do not decode are skipped with a
// warning; the cursor still advances past them.
func (b *Browser) List(ctx context.Context, limit int, cursor string) (*Page, error) {
	did, err := b.Repo.DID(ctx)
	if err != nil {
		return nil, err
	}
	if did == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "account DID not found")
	}

	out, err := b.Repo.ListRecords(ctx, did, Collection, ClampLimit(limit), cursor)
	if err != nil {
		return nil, err
	}

	page := &Page{Records: make([]avatar.ArchiveRecord, 0, len(out.Records))}
	for _, rec := range out.Records {
		ar, err := Decode(rec)
		if err != nil {
			b.Logger.Warn("skipping archive record", "uri", rec.URI, "err", err)
			continue
		}
		page.Records = append(page.Records, ar)
	}
	page.Cursor = out.Cursor
	return page, nil
}

// Latest returns the newest archive record, or nil if the archive is empty.
// Listings are newest first.
func (b *Browser) Latest(ctx context.Context) (*avatar.ArchiveRecord, error) {
	var latest *avatar.ArchiveRecord
	err := Walk(ctx, b, 1, func(p *Page) error {
		if len(p.Records) == 0 {
			return nil
		}
		latest = &p.Records[0]
		return ErrStop
	})
	return latest, err
}

// ErrStop may be returned by a [Walk] callback to end the walk early
// without an error.
var ErrStop = stderrors.New("stop walk")

// Lister returns archive pages. *Browser implements it.
type Lister interface {
	List(ctx context.Context, limit int, cursor string) (*Page, error)
}

// Walk calls fn for each page, following cursors until a page has no
// records or no cursor. A cursor that repeats also ends the walk, so Walk
// terminates for any finite archive even if the service keeps returning
// the same page.
func Walk(ctx context.Context, l Lister, limit int, fn func(*Page) error) error {
	seen := make(map[string]bool)
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := l.List(ctx, limit, cursor)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			if stderrors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		if len(page.Records) == 0 || page.Cursor == "" || seen[page.Cursor] {
			return nil
		}
		seen[page.Cursor] = true
		cursor = page.Cursor
	}
}
