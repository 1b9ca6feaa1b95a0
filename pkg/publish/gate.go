// Package publish uploads a rendered avatar, sets it as the profile picture
// and appends it to the archive, at most once per cooldown window.
//
// The service is the only source of truth for the last update time. There
// is no local lock: two concurrent publishes for one account can both pass
// the cooldown check.
package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/archive"
	"github.com/nornoe/skyavatar/pkg/atproto"
	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/cache"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/journal"
	"github.com/nornoe/skyavatar/pkg/observability"
)

// DefaultCooldown is the minimum time between two avatar updates.
const DefaultCooldown = 5 * time.Minute

// MimeType of uploaded avatars.
const MimeType = "image/png"

// Repo is the part of the repository service the gate writes to.
// *atproto.Client implements it.
type Repo interface {
	archive.Repo
	GetProfile(ctx context.Context, actor string) (*atproto.Profile, error)
	UploadBlob(ctx context.Context, data []byte, mimeType string) (*atproto.Blob, error)
	UpdateProfile(ctx context.Context, mutate func(profile map[string]any) error) error
	CreateRecord(ctx context.Context, repo, collection string, record any) (*atproto.RecordRef, error)
}

// Config configures a [Gate]. Zero values select the defaults.
type Config struct {
	Cooldown time.Duration
	Source   CooldownSource
	Journal  journal.Journal
	Logger   *log.Logger
	Now      func() time.Time
}

// Gate runs the publish state machine against one account.
type Gate struct {
	repo     Repo
	browser  *archive.Browser
	cooldown time.Duration
	source   CooldownSource
	journal  journal.Journal
	logger   *log.Logger
	now      func() time.Time
}

// NewGate creates a gate.
func NewGate(repo Repo, cfg Config) *Gate {
	g := &Gate{
		repo:     repo,
		cooldown: cfg.Cooldown,
		source:   cfg.Source,
		journal:  cfg.Journal,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if g.cooldown <= 0 {
		g.cooldown = DefaultCooldown
	}
	if g.source == "" {
		g.source = SourceProfile
	}
	if g.journal == nil {
		g.journal = journal.Nop{}
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.browser = archive.NewBrowser(repo, g.logger)
	return g
}

// Cooldown returns the configured cooldown window.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// Remaining returns how long the account must wait before the next
// publish. Zero means a publish would proceed now.
func (g *Gate) Remaining(ctx context.Context) (time.Duration, error) {
	did, err := g.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return g.remaining(ctx, did)
}

// Publish runs the full state machine for an already rendered avatar.
//
// A blocked publish returns *errors.RateLimitedError and writes nothing.
// A failure after the cooldown check returns an upstream *errors.Error
// whose cause is a *StageError naming the failed and the committed stages;
// committed writes are not rolled back.
func (g *Gate) Publish(ctx context.Context, png []byte, params avatar.Params) (rec *avatar.ArchiveRecord, err error) {
	hooks := observability.Publish()
	start := time.Now()
	did := ""
	state := Idle
	defer func() {
		hooks.OnPublishComplete(ctx, did, string(state), time.Since(start), err)
	}()
	enter := func(s State) {
		state = s
		hooks.OnStage(ctx, did, string(s))
		g.logger.Debug("publish stage", "did", did, "stage", s)
	}

	if did, err = g.resolve(ctx); err != nil {
		return nil, err
	}

	enter(CooldownCheck)
	remaining, err := g.remaining(ctx, did)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		enter(Blocked)
		hooks.OnCooldownBlocked(ctx, did, remaining)
		secs := ceilSeconds(remaining)
		return nil, &errors.RateLimitedError{
			RetryAfter: secs,
			Message:    fmt.Sprintf("avatar was updated recently: retry in %d seconds", secs),
		}
	}
	enter(Proceed)

	entry := g.begin(ctx, did, png)
	defer func() { g.finish(ctx, entry, err) }()

	var committed []State
	fail := func(cause error) error {
		return stageFailure(&StageError{Stage: state, Committed: committed, Err: cause})
	}

	enter(Uploading)
	blob, err := g.repo.UploadBlob(ctx, png, MimeType)
	if err != nil {
		return nil, fail(err)
	}
	if blob.Type == "" {
		blob.Type = "blob"
	}
	committed = append(committed, Uploading)
	g.advance(ctx, entry, Uploading, journal.Patch{BlobCID: blob.Ref.Link})

	enter(ProfileUpdating)
	err = g.repo.UpdateProfile(ctx, func(profile map[string]any) error {
		profile["avatar"] = blob
		return nil
	})
	if err != nil {
		return nil, fail(err)
	}
	committed = append(committed, ProfileUpdating)
	g.advance(ctx, entry, ProfileUpdating, journal.Patch{})

	enter(ArchiveAppending)
	createdAt := g.now().UTC()
	ref, err := g.repo.CreateRecord(ctx, did, archive.Collection, archive.NewEntry(createdAt, *blob, params))
	if err != nil {
		return nil, fail(err)
	}
	g.advance(ctx, entry, ArchiveAppending, journal.Patch{RecordURI: ref.URI})

	enter(Done)
	g.logger.Info("avatar published", "did", did, "blob", blob.Ref.Link, "record", ref.URI)
	return &avatar.ArchiveRecord{
		URI:       ref.URI,
		CID:       ref.CID,
		CreatedAt: createdAt,
		BlobRef: avatar.BlobRef{
			Type:     blob.Type,
			Link:     blob.Ref.Link,
			MimeType: blob.MimeType,
			Size:     blob.Size,
		},
		Meta: params,
	}, nil
}

func (g *Gate) resolve(ctx context.Context) (string, error) {
	did, err := g.repo.DID(ctx)
	if err != nil {
		return "", err
	}
	if did == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "account DID not found")
	}
	return did, nil
}

func (g *Gate) remaining(ctx context.Context, did string) (time.Duration, error) {
	last, err := g.lastModified(ctx, did)
	if err != nil {
		return 0, err
	}
	if last.IsZero() {
		return 0, nil
	}
	elapsed := g.now().Sub(last)
	if elapsed >= g.cooldown {
		return 0, nil
	}
	// a timestamp ahead of the local clock blocks for one full window at most
	return min(g.cooldown-elapsed, g.cooldown), nil
}

func (g *Gate) lastModified(ctx context.Context, did string) (time.Time, error) {
	switch g.source {
	case SourceArchive:
		latest, err := g.browser.Latest(ctx)
		if err != nil || latest == nil {
			return time.Time{}, err
		}
		return latest.CreatedAt, nil
	default:
		profile, err := g.repo.GetProfile(ctx, did)
		if err != nil {
			return time.Time{}, err
		}
		if profile.IndexedAt == nil {
			return time.Time{}, nil
		}
		return *profile.IndexedAt, nil
	}
}

func (g *Gate) begin(ctx context.Context, did string, png []byte) *journal.Entry {
	entry, err := g.journal.Begin(ctx, did, cache.Hash(png))
	if err != nil {
		g.logger.Warn("journal begin failed", "did", did, "err", err)
		return nil
	}
	return entry
}

func (g *Gate) advance(ctx context.Context, entry *journal.Entry, s State, patch journal.Patch) {
	if entry == nil {
		return
	}
	if err := g.journal.Advance(ctx, entry.ID, string(s), patch); err != nil {
		g.logger.Warn("journal advance failed", "id", entry.ID, "stage", s, "err", err)
	}
}

func (g *Gate) finish(ctx context.Context, entry *journal.Entry, err error) {
	if entry == nil {
		return
	}
	if jerr := g.journal.Finish(ctx, entry.ID, err); jerr != nil {
		g.logger.Warn("journal finish failed", "id", entry.ID, "err", jerr)
	}
}

// stageFailure wraps se as an upstream error, keeping the status and the
// network/auth classification of the underlying service error.
func stageFailure(se *StageError) error {
	e := &errors.Error{
		Code:    errors.ErrCodeUpstream,
		Message: fmt.Sprintf("publish failed while %s", se.Stage),
		Cause:   se,
	}
	var inner *errors.Error
	if stderrors.As(se.Err, &inner) {
		e.Status = inner.Status
		switch inner.Code {
		case errors.ErrCodeNetwork, errors.ErrCodeUnauthorized:
			e.Code = inner.Code
		}
	}
	return e
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
