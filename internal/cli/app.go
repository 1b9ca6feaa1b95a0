package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/archive"
	"github.com/nornoe/skyavatar/pkg/atproto"
	"github.com/nornoe/skyavatar/pkg/cache"
	"github.com/nornoe/skyavatar/pkg/config"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/journal"
	"github.com/nornoe/skyavatar/pkg/observability"
	"github.com/nornoe/skyavatar/pkg/pipeline"
	"github.com/nornoe/skyavatar/pkg/publish"
	"github.com/nornoe/skyavatar/pkg/render/compose"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
	"github.com/nornoe/skyavatar/pkg/session"
)

// closeTimeout bounds backend shutdown after a command finishes.
const closeTimeout = 5 * time.Second

// appOptions selects which parts of the runtime a command needs.
type appOptions struct {
	// NoCache forces the null cache regardless of configuration.
	NoCache bool
	// Account connects the repository client, publish gate and archive.
	// Without it the app can only render.
	Account bool
}

// app is the runtime assembled from configuration for one command.
type app struct {
	Config  *config.Config
	Logger  *log.Logger
	Assets  *overlay.Store
	Cache   cache.Cache
	Journal journal.Journal
	Client  *atproto.Client
	Runner  *pipeline.Runner
	Browser *archive.Browser

	closers []func(context.Context) error
}

// loadConfig reads the config file and applies the configured log level
// unless --verbose already lowered it.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if level := parseLevel(cfg.Log.Level); c.Logger.GetLevel() != log.DebugLevel {
		c.Logger.SetLevel(level)
	}
	return cfg, nil
}

// newApp wires the runtime for cfg. The caller must Close the result.
func (c *CLI) newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	observability.NewLogHooks(c.Logger).Register()

	a := &app{Config: cfg, Logger: c.Logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	assets, err := overlay.WithDir(cfg.Render.AssetsDir)
	if err != nil {
		return nil, err
	}
	a.Assets = assets

	keyer := cache.NewDefaultKeyer()
	if opts.NoCache {
		a.Cache = cache.NewNullCache()
	} else {
		a.Cache, keyer, err = c.newCache(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
	}
	a.closers = append(a.closers, func(context.Context) error { return a.Cache.Close() })

	layers := overlay.NewLayers(assets, a.Cache, keyer, c.Logger)
	renderer := compose.NewRenderer(layers, c.Logger)

	var gate *publish.Gate
	if opts.Account {
		if !cfg.HasCredentials() {
			return nil, errors.New(errors.ErrCodeUnauthorized, "no account configured: set BSKY_IDENTIFIER and BSKY_PASSWORD or [account] in the config file")
		}
		if a.Client, err = newClient(cfg.Account, c.Logger); err != nil {
			return nil, err
		}
		if a.Journal, err = c.newJournal(ctx, cfg.Journal); err != nil {
			return nil, err
		}
		if mj, isMongo := a.Journal.(*journal.MongoJournal); isMongo {
			a.closers = append(a.closers, mj.Close)
		}
		source, err := publish.ParseCooldownSource(cfg.Publish.CooldownSource)
		if err != nil {
			return nil, err
		}
		gate = publish.NewGate(a.Client, publish.Config{
			Cooldown: cfg.Publish.Cooldown.Duration,
			Source:   source,
			Journal:  a.Journal,
			Logger:   c.Logger,
		})
		a.Browser = archive.NewBrowser(a.Client, c.Logger)
	}

	a.Runner = pipeline.NewRunner(a.Cache, keyer, renderer, gate, c.Logger)
	ok = true
	return a, nil
}

// Close releases backend connections.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Warn("close backend", "error", err)
		}
	}
	a.closers = nil
}

// =============================================================================
// Backends
// =============================================================================

// newCache returns the configured cache and the keyer to use with it. The
// Redis backend may be shared with other deployments, so its keys are scoped
// by application name.
func (c *CLI) newCache(ctx context.Context, cfg config.Cache) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), keyer, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Debug("using redis cache", "addr", cfg.RedisAddr)
		return rc, cache.NewScopedKeyer(keyer, appName), nil
	default:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), keyer, nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, keyer, nil
	}
}

func (c *CLI) newJournal(ctx context.Context, cfg config.Journal) (journal.Journal, error) {
	if cfg.Backend != config.JournalMongo {
		return journal.NewMemoryJournal(journal.DefaultMemoryEntries), nil
	}
	return journal.NewMongoJournal(ctx, journal.MongoConfig{URI: cfg.MongoURI, Database: cfg.Database})
}

func newClient(cfg config.Account, logger *log.Logger) (*atproto.Client, error) {
	sessions, err := session.NewFileStore(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	return atproto.NewClient(atproto.Config{
		Service:    cfg.Service,
		Identifier: cfg.Identifier,
		Password:   cfg.Password,
		Sessions:   sessions,
		Logger:     logger,
	}), nil
}
