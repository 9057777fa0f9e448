package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/webharvest/webharvest/internal/model"
)

// Package-level sentinel errors for crawl preconditions.
var (
	// ErrEmptyStartURL is returned when Crawl is called without a start URL.
	ErrEmptyStartURL = errors.New("start URL must not be empty")

	// ErrCrawlerStopped is returned when Crawl is called after Stop.
	ErrCrawlerStopped = errors.New("crawler has been stopped")
)

// Sink receives extracted records during a crawl. Implementations decide
// where records go: a database, a file, a test buffer.
type Sink interface {
	// Save persists one record. A save failure is logged and counted
	// but does not abort the traversal.
	Save(ctx context.Context, record model.Record) error

	// FetchByURL returns stored records whose URL contains the given
	// substring, newest first, up to limit. An empty substring matches
	// everything.
	FetchByURL(ctx context.Context, url string, limit int) ([]model.Record, error)

	// Close releases the sink's resources.
	Close() error
}

// Policy decides whether a discovered URL may be enqueued. The robots
// package provides an implementation; nil means everything is allowed.
type Policy interface {
	Allow(pageURL string) bool
}

// StatusObserver receives job status snapshots as a crawl progresses.
// Snapshots are published once per wave and once at termination.
type StatusObserver interface {
	Publish(status model.JobStatus)
}

// ObserverFunc adapts a function to the StatusObserver interface.
type ObserverFunc func(status model.JobStatus)

// Publish implements StatusObserver.
func (f ObserverFunc) Publish(status model.JobStatus) {
	f(status)
}

// Crawler walks a website breadth-first from a start URL, fetching pages
// wave by wave, extracting fields from each page, and discovering links
// to enqueue for the next depth level.
//
// A Crawler holds only configuration and shared services. All traversal
// state (visited set, queue, counters) lives in the run started by each
// Crawl call, so concurrent runs on one Crawler do not interfere.
type Crawler struct {
	fetcher        Fetcher
	sink           Sink
	observer       StatusObserver
	policy         Policy
	logger         *slog.Logger
	maxDepth       int
	maxWorkers     int
	restrictDomain bool
	ignorePatterns []string
	followPatterns []string

	// mu guards stopped and cancels.
	mu      sync.Mutex
	stopped bool
	cancels []context.CancelFunc
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth bounds the traversal. Depth 0 is the start URL alone.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithMaxWorkers caps the number of pages fetched concurrently in a wave.
func WithMaxWorkers(n int) Option {
	return func(c *Crawler) {
		c.maxWorkers = n
	}
}

// WithRestrictDomain keeps the traversal on the start URL's host.
func WithRestrictDomain(restrict bool) Option {
	return func(c *Crawler) {
		c.restrictDomain = restrict
	}
}

// WithSink sets the destination for extracted records.
func WithSink(sink Sink) Option {
	return func(c *Crawler) {
		c.sink = sink
	}
}

// WithObserver sets the receiver for job status snapshots.
func WithObserver(observer StatusObserver) Option {
	return func(c *Crawler) {
		c.observer = observer
	}
}

// WithPolicy sets the enqueue policy, e.g. robots.txt rules.
func WithPolicy(policy Policy) Option {
	return func(c *Crawler) {
		c.policy = policy
	}
}

// WithLogger sets the logger for crawl events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithIgnorePatterns sets URL path globs that must not be crawled.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path globs; when non-empty, only matching
// paths are crawled.
func WithFollowPatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.followPatterns = patterns
	}
}

// Default traversal bounds when no option overrides them.
const (
	defaultMaxDepth   = 3
	defaultMaxWorkers = 5
)

// New creates a Crawler around the given fetcher.
// A nil fetcher gets a plain HTTP fetcher with defaults.
func New(fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:        fetcher,
		maxDepth:       defaultMaxDepth,
		maxWorkers:     defaultMaxWorkers,
		restrictDomain: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// task is one queued (URL, depth) pair awaiting dispatch.
type task struct {
	url   string
	depth int
}

// taskOutcome is what one worker hands back to the wave loop.
type taskOutcome struct {
	record model.Record
	links  []string
	depth  int
	failed bool
}

// crawlRun is the per-run traversal state. Each Crawl call allocates its
// own, so a Crawler can serve concurrent runs.
type crawlRun struct {
	// visitedMu guards visited.
	visitedMu sync.Mutex
	visited   map[string]struct{}

	queue  []task
	result *model.CrawlResult
	errs   int
}

// markVisited atomically checks and inserts a URL into the visited set.
// It returns true when the URL was not seen before, claiming it for the
// caller; a false return means some earlier task already owns it.
func (r *crawlRun) markVisited(u string) bool {
	r.visitedMu.Lock()
	defer r.visitedMu.Unlock()
	if _, ok := r.visited[u]; ok {
		return false
	}
	r.visited[u] = struct{}{}
	return true
}

// isVisited reports whether a URL is in the visited set. Used at enqueue
// time to keep the queue from filling with known duplicates; the
// authoritative claim still happens in markVisited at dispatch.
func (r *crawlRun) isVisited(u string) bool {
	r.visitedMu.Lock()
	defer r.visitedMu.Unlock()
	_, ok := r.visited[u]
	return ok
}

// visitedCount returns the number of URLs claimed so far.
func (r *crawlRun) visitedCount() int {
	r.visitedMu.Lock()
	defer r.visitedMu.Unlock()
	return len(r.visited)
}

// Crawl walks the site breadth-first from startURL, applying the
// selector map to every fetched page. It blocks until the traversal
// completes, the context is cancelled, or Stop is called.
//
// The traversal proceeds in waves: up to maxWorkers queued tasks are
// dispatched concurrently, and the next wave starts only after every
// task in the current one has finished. Links discovered at depth d are
// enqueued at depth d+1; pages at maxDepth are fetched and extracted but
// never mined for links.
//
// A single page failing to fetch, parse, or save never aborts the run;
// it is counted and the traversal moves on. Crawl returns an error only
// for precondition failures (empty or invalid start URL, invalid
// selectors, stopped crawler) or context cancellation.
func (c *Crawler) Crawl(ctx context.Context, startURL string, selectors SelectorMap) (*model.CrawlResult, error) {
	if startURL == "" {
		return nil, ErrEmptyStartURL
	}
	if err := selectors.Validate(); err != nil {
		return nil, err
	}

	seed, err := Normalize(startURL)
	if err != nil {
		return nil, err
	}

	runCtx, cancel, err := c.registerRun(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	run := &crawlRun{
		visited: make(map[string]struct{}),
		queue:   []task{{url: seed, depth: 0}},
		result:  &model.CrawlResult{StartTime: time.Now()},
	}

	c.logger.Info("starting crawl",
		"start_url", seed,
		"max_depth", c.maxDepth,
		"max_workers", c.maxWorkers,
	)

	c.publish(run, seed, model.StatusRunning, "")

	for len(run.queue) > 0 {
		if err := runCtx.Err(); err != nil {
			c.finish(run, seed, model.StatusStopped, "")
			return run.result, err
		}

		c.runWave(runCtx, run, selectors)
		c.publish(run, seed, model.StatusRunning, "")
	}

	c.finish(run, seed, model.StatusCompleted, "")

	c.logger.Info("crawl finished",
		"start_url", seed,
		"visited", run.result.VisitedCount,
		"recorded", run.result.Recorded,
		"skipped", run.result.Skipped,
		"failed", run.result.Failed,
		"duration", run.result.Duration(),
	)

	return run.result, nil
}

// runWave pops up to maxWorkers tasks off the queue, dispatches the ones
// that claim their URL in the visited set, waits for all of them, and
// folds their outcomes back into the run state.
func (c *Crawler) runWave(ctx context.Context, run *crawlRun, selectors SelectorMap) {
	n := min(c.maxWorkers, len(run.queue))
	wave := run.queue[:n]
	run.queue = run.queue[n:]

	var batch []task
	for _, t := range wave {
		if !run.markVisited(t.url) {
			run.result.Skipped++
			continue
		}
		batch = append(batch, t)
	}
	if len(batch) == 0 {
		return
	}

	outcomes := make([]taskOutcome, len(batch))
	g := new(errgroup.Group)
	for i, t := range batch {
		g.Go(func() error {
			outcomes[i] = c.processTask(ctx, t, selectors)
			return nil
		})
	}
	// Workers never return errors; faults surface as failed outcomes.
	_ = g.Wait()

	for _, out := range outcomes {
		if out.failed {
			run.result.Failed++
			run.errs++
			continue
		}
		if out.record != nil {
			run.result.Records = append(run.result.Records, out.record)
			run.result.Recorded++
			if c.sink != nil {
				if err := c.sink.Save(ctx, out.record); err != nil {
					c.logger.Warn("failed to save record",
						"url", out.record.URL(),
						"error", err,
					)
					run.errs++
				}
			}
		}
		c.enqueueLinks(run, out)
	}

	run.result.VisitedCount = run.visitedCount()
}

// processTask fetches one page, extracts its fields, and discovers its
// outbound links. A panic anywhere inside is confined to this task and
// reported as a failed outcome.
func (c *Crawler) processTask(ctx context.Context, t task, selectors SelectorMap) (out taskOutcome) {
	out.depth = t.depth

	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("task panicked",
				"url", t.url,
				"depth", t.depth,
				"panic", p,
			)
			out = taskOutcome{depth: t.depth, failed: true}
		}
	}()

	outcome := c.fetcher.Fetch(ctx, t.url)
	if !outcome.OK {
		c.logger.Debug("fetch failed",
			"url", t.url,
			"status", outcome.StatusCode,
		)
		out.failed = true
		return out
	}

	if len(selectors) > 0 {
		record, err := ExtractFields(outcome.Content, t.url, selectors)
		if err != nil {
			c.logger.Warn("extraction failed", "url", t.url, "error", err)
			out.failed = true
			return out
		}
		out.record = record
	}

	// Pages at the depth bound are leaves: fetched and extracted, but
	// never mined for links.
	if t.depth < c.maxDepth {
		links, err := DiscoverLinks(outcome.Content, t.url, c.restrictDomain)
		if err != nil {
			c.logger.Debug("link discovery failed", "url", t.url, "error", err)
		}
		out.links = links
	}

	return out
}

// enqueueLinks normalizes a task's discovered links and appends the
// admissible ones to the queue at the next depth level.
func (c *Crawler) enqueueLinks(run *crawlRun, out taskOutcome) {
	for _, link := range out.links {
		normalized, err := Normalize(link)
		if err != nil {
			continue
		}
		if run.isVisited(normalized) {
			continue
		}
		if !allowedByPatterns(normalized, c.ignorePatterns, c.followPatterns) {
			continue
		}
		if c.policy != nil && !c.policy.Allow(normalized) {
			c.logger.Debug("URL disallowed by policy", "url", normalized)
			continue
		}
		run.queue = append(run.queue, task{url: normalized, depth: out.depth + 1})
	}
}

// publish sends a status snapshot to the observer, if any.
func (c *Crawler) publish(run *crawlRun, seed string, status model.Status, errMsg string) {
	if c.observer == nil {
		return
	}
	s := model.JobStatus{
		Status:       status,
		StartURL:     seed,
		MaxDepth:     c.maxDepth,
		PagesCrawled: run.visitedCount(),
		Errors:       run.errs,
		StartTime:    run.result.StartTime,
		ErrorMessage: errMsg,
	}
	if s.Done() {
		s.EndTime = run.result.EndTime
	}
	c.observer.Publish(s)
}

// finish stamps the run's end time and publishes the terminal snapshot.
func (c *Crawler) finish(run *crawlRun, seed string, status model.Status, errMsg string) {
	run.result.EndTime = time.Now()
	run.result.VisitedCount = run.visitedCount()
	c.publish(run, seed, status, errMsg)
}

// registerRun derives a cancellable context for a new run and remembers
// its cancel func so Stop can abort every run in flight.
func (c *Crawler) registerRun(ctx context.Context) (context.Context, context.CancelFunc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil, nil, ErrCrawlerStopped
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancels = append(c.cancels, cancel)
	return runCtx, cancel, nil
}

// Stop aborts every run in flight and releases the fetcher. Calling Stop
// on an already-stopped crawler is a logged no-op.
func (c *Crawler) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.logger.Info("stop requested but crawler is already stopped")
		return
	}
	c.stopped = true
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	if err := c.fetcher.Close(); err != nil {
		c.logger.Warn("failed to close fetcher", "error", err)
	}
}
