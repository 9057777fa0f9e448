package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoStartURL is returned when no seed URL is specified.
	// A crawl cannot start without a URL to seed the frontier.
	ErrNoStartURL = errors.New("no start URL specified: provide a URL to crawl")

	// ErrInvalidMaxDepth is returned when the depth bound is negative.
	// Use 0 to fetch only the seed page.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxWorkers is returned when the worker count is below 1.
	// A single worker gives deterministic FIFO crawling; zero would
	// make no progress at all.
	ErrInvalidMaxWorkers = errors.New("invalid max workers: must be at least 1")

	// ErrInvalidTimeout is returned when a fetch or render timeout is
	// not positive. A zero timeout would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSettleDelay is returned when the render settle delay is
	// negative. Use 0 to snapshot immediately after DOM-ready.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
