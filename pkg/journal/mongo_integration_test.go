//go:build integration

package journal

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestMongoJournal_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	j, err := NewMongoJournal(ctx, MongoConfig{URI: uri, Database: "skyavatar_test"})
	if err != nil {
		t.Fatalf("NewMongoJournal() error: %v", err)
	}
	defer func() {
		_ = j.coll.Drop(ctx)
		_ = j.Close(ctx)
	}()

	e, err := j.Begin(ctx, "did:plc:test", "hash")
	if err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	if err := j.Advance(ctx, e.ID, "uploading", Patch{BlobCID: "bafy"}); err != nil {
		t.Fatalf("Advance() error: %v", err)
	}
	if err := j.Finish(ctx, e.ID, nil); err != nil {
		t.Fatalf("Finish() error: %v", err)
	}

	got, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != e.ID || got[0].Stage != "uploading" || got[0].BlobCID != "bafy" || !got[0].Done() {
		t.Errorf("Recent() = %+v", got)
	}
	if err := j.Advance(ctx, "missing", "x", Patch{}); err == nil {
		t.Error("Advance() on missing entry succeeded")
	}
}
