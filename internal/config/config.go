// Package config loads cookgems settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, COOKGEMS_*
// environment variables, command-line flags (applied by the caller).
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/events"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/runstore"
)

const appName = "cookgems"

// Defaults.
const (
	DefaultRuby     = "ruby"
	DefaultListen   = "127.0.0.1:8750"
	DefaultCacheTTL = 24 * time.Hour
)

// Config is the merged configuration.
type Config struct {
	// Cookbooks lists directories to load cookbooks from. Each entry is
	// either a cookbook or a directory of cookbooks.
	Cookbooks []string `toml:"cookbooks"`

	SourceURL string `toml:"source_url"`
	Ruby      string `toml:"ruby"`
	GemHome   string `toml:"gem_home"`

	HistoryDir    string `toml:"history_dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`

	RedisURL     string `toml:"redis_url"`
	RedisChannel string `toml:"redis_channel"`

	Listen string `toml:"listen"`

	CacheDir string   `toml:"cache_dir"`
	CacheTTL Duration `toml:"cache_ttl"`
}

// Duration is a time.Duration read from a TOML string such as "12h".
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
	return []byte(d.String()), nil
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.SourceURL == "" {
		c.SourceURL = geminstall.DefaultSourceURL
	}
	if c.Ruby == "" {
		c.Ruby = DefaultRuby
	}
	if c.HistoryDir == "" {
		c.HistoryDir = defaultHistoryDir()
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = runstore.DefaultDatabase
	}
	if c.RedisChannel == "" {
		c.RedisChannel = events.DefaultChannel
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.CacheTTL.Duration == 0 {
		c.CacheTTL.Duration = DefaultCacheTTL
	}
	return c
}

// Validate checks values that would otherwise fail deep inside a command.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.SourceURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "source_url")
	}
	if c.CacheTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache_ttl must not be negative")
	}
	return nil
}

// RunStore returns the history backend options.
func (c Config) RunStore() runstore.Options {
	return runstore.Options{Dir: c.HistoryDir, MongoURI: c.MongoURI, MongoDatabase: c.MongoDatabase}
}

// DefaultPath returns $XDG_CONFIG_HOME/cookgems/config.toml, or
// ~/.config/cookgems/config.toml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

func defaultHistoryDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName, "runs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "runs")
	}
	return filepath.Join(home, ".local", "state", appName, "runs")
}

// Load reads path (or DefaultPath when empty), applies environment
// overrides and defaults, and validates the result. A missing default file
// is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
			}
			cfg = resolvePaths(cfg, filepath.Dir(path))
		case os.IsNotExist(err) && !explicit:
		default:
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
	}

	cfg = ApplyEnv(cfg, os.LookupEnv).WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvSourceURL = "COOKGEMS_SOURCE_URL"
	EnvRuby      = "COOKGEMS_RUBY"
	EnvGemHome   = "COOKGEMS_GEM_HOME"
	EnvRedisURL  = "COOKGEMS_REDIS_URL"
	EnvMongoURI  = "COOKGEMS_MONGO_URI"
	EnvHistory   = "COOKGEMS_HISTORY_DIR"
)

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func ApplyEnv(c Config, lookup func(string) (string, bool)) Config {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.SourceURL, EnvSourceURL)
	set(&c.Ruby, EnvRuby)
	set(&c.GemHome, EnvGemHome)
	set(&c.RedisURL, EnvRedisURL)
	set(&c.MongoURI, EnvMongoURI)
	set(&c.HistoryDir, EnvHistory)
	return c
}

// resolvePaths makes relative cookbook paths relative to the config file.
func resolvePaths(c Config, base string) Config {
	for i, p := range c.Cookbooks {
		if p != "" && !filepath.IsAbs(p) {
			c.Cookbooks[i] = filepath.Join(base, p)
		}
	}
	return c
}
