package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderFetcher fetches pages through a headless browser so that
// script-built content is present in the snapshot. One browser session
// is acquired at construction and shared across every fetch in the run;
// per-task browser startup would dominate crawl time.
//
// When rendering fails or times out for a URL, the fetcher falls back to
// a plain HTTP fetch for that URL only. The fallback is part of the
// fetch contract, not an optimization: a flaky renderer must not turn an
// otherwise reachable page into a failed task. Rendered mode stays
// enabled for subsequent URLs after a fallback.
type RenderFetcher struct {
	// browserCtx is the shared browser session. Tabs for individual
	// fetches are derived from it.
	browserCtx context.Context

	// allocCancel and browserCancel release the browser session.
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc

	// fallback performs the plain fetch when rendering fails.
	fallback *HTTPFetcher

	// timeout bounds navigation plus the DOM-ready wait per fetch.
	timeout time.Duration

	// settle is the post-DOM-ready wait before snapshotting, giving
	// deferred scripts time to populate the page.
	settle time.Duration

	// logger records fallbacks and lifecycle events.
	logger *slog.Logger

	// render performs the actual browser navigation. Replaceable in
	// tests, where no Chrome binary is available.
	render func(ctx context.Context, pageURL string) (string, error)

	// mu guards closed.
	mu     sync.Mutex
	closed bool
}

// RenderOption configures a RenderFetcher.
type RenderOption func(*RenderFetcher)

// WithRenderTimeout bounds each rendered fetch (navigation + DOM-ready).
func WithRenderTimeout(d time.Duration) RenderOption {
	return func(r *RenderFetcher) {
		r.timeout = d
	}
}

// WithSettleDelay sets the wait between DOM-ready and the snapshot.
func WithSettleDelay(d time.Duration) RenderOption {
	return func(r *RenderFetcher) {
		r.settle = d
	}
}

// WithFallback sets the plain fetcher used when rendering fails.
func WithFallback(f *HTTPFetcher) RenderOption {
	return func(r *RenderFetcher) {
		r.fallback = f
	}
}

// WithRenderLogger sets the logger for fallback and lifecycle events.
func WithRenderLogger(logger *slog.Logger) RenderOption {
	return func(r *RenderFetcher) {
		r.logger = logger
	}
}

// defaultSettleDelay is the post-DOM-ready wait when no option overrides it.
const defaultSettleDelay = 2 * time.Second

// NewRenderFetcher starts a shared headless browser session and returns
// a fetcher using it. The session is held until Close is called; callers
// must Close on every exit path, including after a cancelled crawl.
func NewRenderFetcher(opts ...RenderOption) (*RenderFetcher, error) {
	r := &RenderFetcher{
		timeout: defaultFetchTimeout,
		settle:  defaultSettleDelay,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.fallback == nil {
		r.fallback = NewHTTPFetcher()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	r.browserCtx = browserCtx
	r.allocCancel = allocCancel
	r.browserCancel = browserCancel
	r.render = r.renderPage

	return r, nil
}

// renderPage navigates a fresh tab to the URL, waits for DOM-ready plus
// the settle delay, and snapshots the rendered document.
//
// The tab context must derive from the browser session for chromedp to
// reuse it, which detaches it from the caller's ctx; linkCancellation
// reattaches the two so a cancelled crawl interrupts an in-flight
// navigation instead of waiting out the render timeout.
func (r *RenderFetcher) renderPage(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(r.browserCtx)
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, r.timeout)
	defer timeoutCancel()

	unlink := linkCancellation(ctx, timeoutCancel)
	defer unlink()

	tasks := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	}
	if r.settle > 0 {
		tasks = append(tasks, chromedp.Sleep(r.settle))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		// Surface the caller's cancellation, not the browser's teardown error
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}

	// Respect the caller's cancellation even if the browser raced it
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return html, nil
}

// linkCancellation makes cancel fire as soon as ctx is cancelled. The
// returned func detaches the link; callers must invoke it once the
// guarded work is done so a long-lived ctx cannot cancel a context
// reused later.
func linkCancellation(ctx context.Context, cancel context.CancelFunc) func() {
	stop := context.AfterFunc(ctx, cancel)
	return func() { stop() }
}

// Fetch retrieves the URL through the browser, falling back to a plain
// HTTP fetch for this URL if rendering fails.
//
// A rendered snapshot has no HTTP status of its own; a successful render
// reports status 200 so downstream accounting treats it like any other
// successful fetch.
func (r *RenderFetcher) Fetch(ctx context.Context, pageURL string) FetchOutcome {
	html, err := r.render(ctx, pageURL)
	if err != nil {
		r.logger.Warn("rendered fetch failed, falling back to plain fetch",
			"url", pageURL,
			"error", err,
		)
		return r.fallback.Fetch(ctx, pageURL)
	}

	return FetchOutcome{Content: []byte(html), OK: true, StatusCode: http.StatusOK}
}

// Close releases the browser session and the fallback fetcher's
// connections. Closing an already-closed fetcher is a logged no-op.
func (r *RenderFetcher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Debug("render fetcher already closed, ignoring")
		return nil
	}
	r.closed = true

	if r.browserCancel != nil {
		r.browserCancel()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}

	return r.fallback.Close()
}
