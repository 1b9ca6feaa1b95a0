// Package config loads skyavatar settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, command-line flags (applied by the CLI). Account credentials
// are normally supplied through the environment:
//
//	BSKY_SERVICE     repository service URL
//	BSKY_IDENTIFIER  handle or DID
//	BSKY_PASSWORD    app password
//	SKYAVATAR_LISTEN HTTP listen address
//	REDIS_ADDR       enables the Redis cache backend
//	MONGO_URI        enables the MongoDB journal backend
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/publish"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Journal backends.
const (
	JournalMemory = "memory"
	JournalMongo  = "mongo"
)

// Duration is a time.Duration that reads from TOML strings like "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full configuration.
type Config struct {
	Account Account `toml:"account"`
	Server  Server  `toml:"server"`
	Render  Render  `toml:"render"`
	Publish Publish `toml:"publish"`
	Cache   Cache   `toml:"cache"`
	Journal Journal `toml:"journal"`
	Log     Log     `toml:"log"`
}

// Account identifies the Bluesky account avatars are published to.
type Account struct {
	Service    string `toml:"service"`
	Identifier string `toml:"identifier"`
	Password   string `toml:"password"`
	// SessionDir stores resumable sessions. Empty uses the default.
	SessionDir string `toml:"session_dir"`
}

// Server configures the HTTP API.
type Server struct {
	Listen       string   `toml:"listen"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Render configures asset lookup.
type Render struct {
	// AssetsDir overrides embedded overlays; it holds eyes/ and mouth/.
	AssetsDir string `toml:"assets_dir"`
}

// Publish configures the publish gate.
type Publish struct {
	Cooldown       Duration `toml:"cooldown"`
	CooldownSource string   `toml:"cooldown_source"`
}

// Cache configures the overlay and artifact cache.
type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// Journal configures the publish journal.
type Journal struct {
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Account: Account{Service: "https://bsky.social"},
		Server: Server{
			Listen:       ":3000",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
		},
		Publish: Publish{
			Cooldown:       Duration{publish.DefaultCooldown},
			CooldownSource: string(publish.SourceProfile),
		},
		Cache:   Cache{Backend: CacheFile},
		Journal: Journal{Backend: JournalMemory, Database: "skyavatar"},
		Log:     Log{Level: "info"},
	}
}

// DefaultPath returns ~/.config/skyavatar/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "skyavatar", "config.toml"), nil
}

// Load reads path over the defaults and applies environment overrides. An
// empty path reads the default location, which may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}

	cfg.applyEnv(lookup)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Account.Service, "BSKY_SERVICE")
	set(&c.Account.Identifier, "BSKY_IDENTIFIER")
	set(&c.Account.Password, "BSKY_PASSWORD")
	set(&c.Server.Listen, "SKYAVATAR_LISTEN")
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
	if v, ok := lookup("MONGO_URI"); ok && v != "" {
		c.Journal.MongoURI = v
		c.Journal.Backend = JournalMongo
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.Account.Service); err != nil {
		return err
	}
	if c.Publish.Cooldown.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "publish.cooldown must not be negative")
	}
	if _, err := publish.ParseCooldownSource(c.Publish.CooldownSource); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "publish.cooldown_source")
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache.backend %q", c.Cache.Backend)
	}
	switch c.Journal.Backend {
	case JournalMemory:
	case JournalMongo:
		if c.Journal.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "journal.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown journal.backend %q", c.Journal.Backend)
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server timeouts must not be negative")
	}
	return nil
}

// HasCredentials reports whether an identifier and password are set.
func (c *Config) HasCredentials() bool {
	return c.Account.Identifier != "" && c.Account.Password != ""
}
