package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests that defaults are populated.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected default max depth %d, got %d", DefaultMaxDepth, cfg.MaxDepth)
	}
	if cfg.MaxWorkers != DefaultMaxWorkers {
		t.Errorf("expected default max workers %d, got %d", DefaultMaxWorkers, cfg.MaxWorkers)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("expected default fetch timeout %v, got %v", DefaultFetchTimeout, cfg.FetchTimeout)
	}
	if cfg.SettleDelay != DefaultSettleDelay {
		t.Errorf("expected default settle delay %v, got %v", DefaultSettleDelay, cfg.SettleDelay)
	}
	if cfg.UserAgent == "" {
		t.Error("expected a default user agent")
	}
}

// TestConfigValidate tests validation error cases.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.StartURL = "https://example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing start URL",
			mutate:  func(c *Config) { c.StartURL = "" },
			wantErr: ErrNoStartURL,
		},
		{
			name:    "negative depth",
			mutate:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: ErrInvalidMaxDepth,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.MaxWorkers = 0 },
			wantErr: ErrInvalidMaxWorkers,
		},
		{
			name:    "zero fetch timeout",
			mutate:  func(c *Config) { c.FetchTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.SettleDelay = -time.Second },
			wantErr: ErrInvalidSettleDelay,
		},
		{
			name:    "negative body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name:    "conflicting report formats",
			mutate:  func(c *Config) { c.JSONReport = true; c.MarkdownReport = true },
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests YAML config file loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads site configs with defaults merge", func(t *testing.T) {
		t.Parallel()

		content := `
defaults:
  depth: 2
  headers:
    X-Requested-With: webharvest
sites:
  example.com:
    selectors:
      title: "h1"
      links: "a.nav"
    cookie: "session=abc"
  other.org:
    depth: 5
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		site := cf.GetSiteConfig("example.com")
		if site.Selectors["title"] != "h1" {
			t.Errorf("expected title selector h1, got %q", site.Selectors["title"])
		}
		if site.Cookie != "session=abc" {
			t.Errorf("expected cookie from site config, got %q", site.Cookie)
		}
		if site.Depth != 2 {
			t.Errorf("expected depth 2 from defaults, got %d", site.Depth)
		}
		if site.Headers["X-Requested-With"] != "webharvest" {
			t.Error("expected default header to apply")
		}

		other := cf.GetSiteConfig("other.org")
		if other.Depth != 5 {
			t.Errorf("expected site depth override 5, got %d", other.Depth)
		}

		unknown := cf.GetSiteConfig("unknown.example")
		if unknown.Depth != 2 {
			t.Errorf("expected defaults for unknown site, got depth %d", unknown.Depth)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not: a: map"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}

// TestFindConfigFile tests the config file search order.
func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path wins when it exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("sites: {}\n"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("missing explicit path yields empty string", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("working directory is searched before home", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: {}\n"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		// Resolve symlinks: t.TempDir may sit behind one (e.g. /tmp on macOS)
		want, err := filepath.EvalSymlinks(path)
		if err != nil {
			t.Fatalf("EvalSymlinks() error: %v", err)
		}
		resolved, err := filepath.EvalSymlinks(got)
		if err != nil {
			t.Fatalf("FindConfigFile() = %q, not resolvable: %v", got, err)
		}
		if resolved != want {
			t.Errorf("FindConfigFile() = %q, want %q", resolved, want)
		}
	})
}
