package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a MongoJournal.
type MongoConfig struct {
	URI        string
	Database   string // default "skyavatar"
	Collection string // default "publish_journal"
}

// MongoJournal stores entries in a MongoDB collection.
type MongoJournal struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoJournal connects, pings the server and ensures the indexes used
// by Recent exist.
func NewMongoJournal(ctx context.Context, cfg MongoConfig) (*MongoJournal, error) {
	if cfg.Database == "" {
		cfg.Database = "skyavatar"
	}
	if cfg.Collection == "" {
		cfg.Collection = "publish_journal"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	j := &MongoJournal{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}
	_, err = j.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "did", Value: 1}, {Key: "started_at", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create journal indexes: %w", err)
	}
	return j, nil
}

func (j *MongoJournal) Begin(ctx context.Context, did, blobHash string) (*Entry, error) {
	e := &Entry{
		ID:        uuid.NewString(),
		DID:       did,
		BlobHash:  blobHash,
		StartedAt: j.now().UTC(),
	}
	if _, err := j.coll.InsertOne(ctx, e); err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

func (j *MongoJournal) Advance(ctx context.Context, id, stage string, patch Patch) error {
	set := bson.M{"stage": stage}
	if patch.BlobCID != "" {
		set["blob_cid"] = patch.BlobCID
	}
	if patch.RecordURI != "" {
		set["record_uri"] = patch.RecordURI
	}
	return j.update(ctx, id, set)
}

func (j *MongoJournal) Finish(ctx context.Context, id string, err error) error {
	set := bson.M{"finished_at": j.now().UTC()}
	if err != nil {
		set["error"] = err.Error()
	}
	return j.update(ctx, id, set)
}

func (j *MongoJournal) update(ctx context.Context, id string, set bson.M) error {
	res, err := j.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update journal entry %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("journal entry %s not found", id)
	}
	return nil
}

func (j *MongoJournal) Recent(ctx context.Context, n int) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if n > 0 {
		opts.SetLimit(int64(n))
	}
	cur, err := j.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find journal entries: %w", err)
	}
	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode journal entries: %w", err)
	}
	return out, nil
}

// Close disconnects from the server.
func (j *MongoJournal) Close(ctx context.Context) error {
	return j.client.Disconnect(ctx)
}

var _ Journal = (*MongoJournal)(nil)
