package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/cookgems/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvSourceURL, EnvRuby, EnvGemHome, EnvRedisURL, EnvMongoURI, EnvHistory} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceURL != "https://rubygems.org" {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.Ruby != DefaultRuby || cfg.Listen != DefaultListen {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.CacheTTL.Duration != DefaultCacheTTL {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.HistoryDir == "" || cfg.RedisChannel == "" || cfg.MongoDatabase == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
cookbooks = ["cookbooks", "/abs/site-cookbooks"]
source_url = "https://gems.example.com"
ruby = "/opt/ruby/bin/ruby"
redis_url = "redis://localhost:6379/0"
cache_ttl = "2h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceURL != "https://gems.example.com" || cfg.Ruby != "/opt/ruby/bin/ruby" {
		t.Errorf("file values not read: %+v", cfg)
	}
	if cfg.CacheTTL.Duration != 2*time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	want := filepath.Join(filepath.Dir(path), "cookbooks")
	if len(cfg.Cookbooks) != 2 || cfg.Cookbooks[0] != want || cfg.Cookbooks[1] != "/abs/site-cookbooks" {
		t.Errorf("Cookbooks = %v", cfg.Cookbooks)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `ruby = "/opt/ruby/bin/ruby"`)
	t.Setenv(EnvRuby, "/usr/local/bin/ruby")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ruby != "/usr/local/bin/ruby" {
		t.Errorf("Ruby = %q, want env override", cfg.Ruby)
	}
	if cfg.RunStore().MongoURI != "mongodb://db:27017" {
		t.Errorf("RunStore = %+v", cfg.RunStore())
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		path string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.toml")},
		{"bad toml", writeConfig(t, `ruby = `)},
		{"unknown key", writeConfig(t, `rubby = "x"`)},
		{"bad url", writeConfig(t, `source_url = "ftp://gems"`)},
		{"bad duration", writeConfig(t, `cache_ttl = "soon"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if errors.GetCode(err) != errors.ErrCodeInvalidConfig {
				t.Errorf("Load error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvSourceURL: "https://mirror", EnvRedisURL: ""}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := ApplyEnv(Config{RedisURL: "redis://keep"}, lookup)
	if cfg.SourceURL != "https://mirror" {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.RedisURL != "redis://keep" {
		t.Errorf("empty env value should not override: %q", cfg.RedisURL)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	if got := DefaultPath(); got != filepath.Join("/etc/xdg", "cookgems", "config.toml") {
		t.Errorf("DefaultPath = %q", got)
	}
}
