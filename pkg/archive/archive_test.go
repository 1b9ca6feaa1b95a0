package archive

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/nornoe/skyavatar/pkg/atproto"
	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/errors"
)

var testParams = avatar.Params{
	Background: "#000", Shape: "circle", Eyes: "round", Mouth: "smile", Color: "#ff0000", Rotation: 45,
}

func entryRecord(t *testing.T, i int) atproto.Record {
	t.Helper()
	blob := atproto.Blob{Type: "blob", Ref: atproto.Link{Link: "bafy" + strconv.Itoa(i)}, MimeType: "image/png", Size: 100}
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour)
	data, err := json.Marshal(NewEntry(created, blob, testParams))
	if err != nil {
		t.Fatal(err)
	}
	return atproto.Record{URI: fmt.Sprintf("at://did:plc:alice/%s/%d", Collection, i), CID: "cid" + strconv.Itoa(i), Value: data}
}

// fakeRepo serves records in pages of the requested size.
type fakeRepo struct {
	did     string
	records []atproto.Record
	limits  []int
	calls   int
	loop    bool // always return the same cursor
}

func (f *fakeRepo) DID(context.Context) (string, error) { return f.did, nil }

func (f *fakeRepo) ListRecords(_ context.Context, repo, collection string, limit int, cursor string) (*atproto.ListRecordsOutput, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	if collection != Collection || repo != f.did {
		return nil, fmt.Errorf("unexpected repo %s collection %s", repo, collection)
	}
	if f.loop {
		return &atproto.ListRecordsOutput{Records: f.records[:1], Cursor: "same"}, nil
	}
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+limit, len(f.records))
	out := &atproto.ListRecordsOutput{Records: f.records[start:end]}
	if end < len(f.records) {
		out.Cursor = strconv.Itoa(end)
	}
	return out, nil
}

func TestDecode(t *testing.T) {
	rec := entryRecord(t, 0)
	got, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Meta != testParams {
		t.Errorf("Meta = %+v, want %+v", got.Meta, testParams)
	}
	if got.BlobRef.Link != "bafy0" || got.BlobRef.MimeType != "image/png" || got.BlobRef.Size != 100 {
		t.Errorf("BlobRef = %+v", got.BlobRef)
	}
	if !got.CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if got.URI != rec.URI || got.CID != "cid0" {
		t.Errorf("URI/CID = %s %s", got.URI, got.CID)
	}
}

func TestDecodeWireFormat(t *testing.T) {
	raw := `{
		"$type": "net.nornoe.avatarArchive",
		"createdAt": "2025-03-04T05:06:07.123Z",
		"blob": {
			"ref": {"$type": "blob", "ref": {"$link": "bafkrei"}, "mimeType": "image/png", "size": 2048},
			"mimeType": "image/png"
		},
		"meta": {"eyes": "wink", "color": "#00ff00", "mouth": "open", "shape": "heart", "rotation": 90, "background": "#ccc"}
	}`
	got, err := Decode(atproto.Record{URI: "at://x", CID: "c", Value: json.RawMessage(raw)})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := avatar.Params{Background: "#ccc", Shape: "heart", Eyes: "wink", Mouth: "open", Color: "#00ff00", Rotation: 90}
	if got.Meta != want {
		t.Errorf("Meta = %+v", got.Meta)
	}
	if got.BlobRef.Link != "bafkrei" || got.BlobRef.Size != 2048 {
		t.Errorf("BlobRef = %+v", got.BlobRef)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"wrong type", `{"$type":"app.bsky.feed.post","createdAt":"2025-01-01T00:00:00Z","blob":{"ref":{"ref":{"$link":"x"}}}}`},
		{"bad time", `{"$type":"net.nornoe.avatarArchive","createdAt":"yesterday","blob":{"ref":{"ref":{"$link":"x"}}}}`},
		{"no blob", `{"$type":"net.nornoe.avatarArchive","createdAt":"2025-01-01T00:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(atproto.Record{URI: "at://x", Value: json.RawMessage(tt.raw)}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{1, 1},
		{100, 100},
		{101, MaxLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestListSkipsCorruptRecords(t *testing.T) {
	repo := &fakeRepo{did: "did:plc:alice"}
	repo.records = []atproto.Record{
		entryRecord(t, 0),
		{URI: "at://bad", Value: json.RawMessage(`{"$type":"other"}`)},
		entryRecord(t, 1),
	}

	page, err := NewBrowser(repo, nil).List(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(page.Records))
	}
	if repo.limits[0] != DefaultLimit {
		t.Errorf("limit = %d, want %d", repo.limits[0], DefaultLimit)
	}
	if page.Cursor != "" {
		t.Errorf("cursor = %q, want empty", page.Cursor)
	}
}

func TestListRequiresDID(t *testing.T) {
	_, err := NewBrowser(&fakeRepo{}, nil).List(context.Background(), 10, "")
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		limit     int
		wantPages int
	}{
		{"empty", 0, 10, 1},
		{"one page", 5, 10, 1},
		{"exact pages", 20, 10, 2},
		{"partial last page", 25, 10, 3},
		{"page size one", 3, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{did: "did:plc:alice"}
			for i := range tt.n {
				repo.records = append(repo.records, entryRecord(t, i))
			}

			var seen int
			pages := 0
			err := Walk(context.Background(), NewBrowser(repo, nil), tt.limit, func(p *Page) error {
				pages++
				seen += len(p.Records)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk: %v", err)
			}
			if seen != tt.n {
				t.Errorf("records = %d, want %d", seen, tt.n)
			}
			if pages != tt.wantPages {
				t.Errorf("pages = %d, want %d", pages, tt.wantPages)
			}
		})
	}
}

func TestWalkRepeatedCursorTerminates(t *testing.T) {
	repo := &fakeRepo{did: "did:plc:alice", loop: true}
	repo.records = []atproto.Record{entryRecord(t, 0)}

	err := Walk(context.Background(), NewBrowser(repo, nil), 10, func(*Page) error { return nil })
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("calls = %d, want 2", repo.calls)
	}
}

func TestWalkCallbackError(t *testing.T) {
	repo := &fakeRepo{did: "did:plc:alice"}
	for i := range 5 {
		repo.records = append(repo.records, entryRecord(t, i))
	}
	boom := stderrors.New("boom")
	err := Walk(context.Background(), NewBrowser(repo, nil), 2, func(*Page) error { return boom })
	if !stderrors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestLatest(t *testing.T) {
	repo := &fakeRepo{did: "did:plc:alice"}
	b := NewBrowser(repo, nil)

	got, err := b.Latest(context.Background())
	if err != nil || got != nil {
		t.Fatalf("empty archive: %v, %v", got, err)
	}

	repo.records = []atproto.Record{entryRecord(t, 0), entryRecord(t, 1)}
	got, err = b.Latest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.CID != "cid0" {
		t.Errorf("Latest = %+v", got)
	}
	if repo.limits[len(repo.limits)-1] != 1 {
		t.Errorf("limit = %d, want 1", repo.limits[len(repo.limits)-1])
	}
}
