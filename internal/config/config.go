package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the behavior of a polite general-purpose crawler and can
// all be overridden via CLI flags or the configuration file.
const (
	// DefaultMaxDepth limits link-following to three hops from the seed.
	// Depth 0 fetches only the seed page. Three levels reaches most of a
	// typical site's content without exploding the frontier.
	DefaultMaxDepth = 3

	// DefaultMaxWorkers is the number of concurrent fetches per crawl.
	// Five workers keeps throughput reasonable without hammering a
	// single host; raise it only for hosts that can take the load.
	DefaultMaxWorkers = 5

	// DefaultFetchTimeout bounds each plain HTTP request. Ten seconds is
	// generous for a single page on the clearnet; slower responses are
	// treated as fetch failures rather than blocking a worker.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultRenderTimeout bounds a rendered fetch, covering navigation
	// and the DOM-ready wait. On expiry the fetcher falls back to a
	// plain HTTP fetch for that URL.
	DefaultRenderTimeout = 10 * time.Second

	// DefaultSettleDelay is how long a rendered fetch waits after
	// DOM-ready before snapshotting, so deferred scripts can populate
	// the page. Two seconds covers most client-rendered content.
	DefaultSettleDelay = 2 * time.Second

	// DefaultUserAgent identifies WebHarvest in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs.
	DefaultUserAgent = "WebHarvest/1.0 (+https://github.com/webharvest/webharvest)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is ample for HTML while preventing memory exhaustion from
	// unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultListenAddr is the bind address for the HTTP API server.
	DefaultListenAddr = ":5000"

	// DefaultFetchLimit is the maximum number of records returned by
	// data queries when the caller does not specify a limit.
	DefaultFetchLimit = 100

	// AppName is the application name used for XDG directory paths.
	AppName = "webharvest"
)

// Config holds all configuration options for WebHarvest.
// It is populated from CLI flags and the optional config file and passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, StoreConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// StartURL is the seed URL for a crawl. Required by the crawl
	// command; the scheme defaults to https when omitted.
	StartURL string

	// MaxDepth is the maximum number of link hops from the seed.
	// Depth 0 means only the seed page is fetched.
	MaxDepth int

	// MaxWorkers is the size of the concurrent fetch pool.
	// Must be at least 1; 1 gives deterministic FIFO crawling.
	MaxWorkers int

	// FetchTimeout bounds each plain HTTP request.
	FetchTimeout time.Duration

	// RenderTimeout bounds each rendered (headless browser) fetch.
	RenderTimeout time.Duration

	// SettleDelay is the post-DOM-ready wait before snapshotting a
	// rendered page.
	SettleDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// RestrictDomain limits link-following to the seed URL's host.
	// Hosts are compared as exact strings; subdomains count as foreign.
	RestrictDomain bool

	// UseRenderedFetch enables headless-browser fetching for pages that
	// build their content with JavaScript. A single browser session is
	// shared across the whole run and released when the crawl ends.
	UseRenderedFetch bool

	// RespectRobots enables the optional robots.txt policy check.
	// Disallowed paths are never enqueued. Off by default.
	RespectRobots bool

	// Selectors maps field names to CSS selector strings for data
	// extraction. Empty means crawl without extraction.
	Selectors map[string]string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// DBDir is the directory path for the SQLite database.
	// When empty, extracted records are not persisted.
	// Defaults to the XDG data directory when persistence is requested.
	DBDir string

	// SaveToDB indicates whether to save extracted records to the
	// database. Automatically set when DBDir is configured.
	SaveToDB bool

	// JSONReport enables JSON report output instead of the plain text
	// summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// plain text summary. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ListenAddr is the bind address for the HTTP API server.
	ListenAddr string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webharvest in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site configurations loaded from the config
	// file. Populated by LoadConfigFile; may be nil.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, worker
// counts). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:      DefaultMaxDepth,
		MaxWorkers:    DefaultMaxWorkers,
		FetchTimeout:  DefaultFetchTimeout,
		RenderTimeout: DefaultRenderTimeout,
		SettleDelay:   DefaultSettleDelay,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		ListenAddr:    DefaultListenAddr,
	}
}

// XDGDataDir returns the XDG data directory for WebHarvest.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/webharvest
// On macOS: ~/Library/Application Support/webharvest
// On Windows: %LOCALAPPDATA%\webharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for WebHarvest.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid for a crawl run.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// A crawl needs a seed URL to start from
	if c.StartURL == "" {
		return ErrNoStartURL
	}

	// Negative depth is meaningless; 0 means seed-only
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	// At least one worker is required to make progress
	if c.MaxWorkers < 1 {
		return ErrInvalidMaxWorkers
	}

	// Zero or negative timeout would cause immediate fetch failures
	if c.FetchTimeout <= 0 || c.RenderTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Negative settle delay is invalid; use 0 to skip the wait
	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// SiteConfig returns the merged per-site configuration for the given
// host, or a zero SiteConfig when no config file was loaded.
func (c *Config) SiteConfig(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}
