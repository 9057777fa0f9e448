package crawler

import (
	"context"
	"io"
	"net/http"
	"time"
)

// FetchOutcome is the result of retrieving a single URL.
// It is transient: the traversal engine hands it to the extractor and
// link discoverer and then discards it.
type FetchOutcome struct {
	// Content is the raw document body. Nil when OK is false.
	Content []byte

	// OK reports whether the fetch succeeded. For plain HTTP this
	// means status 200; any other status or transport failure is a
	// fetch failure, never an error that aborts traversal.
	OK bool

	// StatusCode is the HTTP status, 0 on transport failure.
	StatusCode int
}

// Fetcher retrieves page content for the traversal engine.
// Implementations must be safe for concurrent use: multiple workers
// call Fetch simultaneously during a wave.
type Fetcher interface {
	// Fetch retrieves the page at the given URL.
	// Failures are reported through FetchOutcome.OK, not errors,
	// because a failed page is a normal crawl event.
	Fetch(ctx context.Context, pageURL string) FetchOutcome

	// Close releases any resources held by the fetcher, such as a
	// shared browser session. It must be safe to call more than once.
	Close() error
}

// HTTPFetcher fetches pages with plain HTTP GET requests.
// It is stateless per call and safe for concurrent use.
type HTTPFetcher struct {
	// client performs the requests. Shared across calls so connection
	// pooling works across a crawl run.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits how many response bytes are read.
	maxBodySize int64

	// headers are extra request headers, e.g. per-site authentication.
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) HTTPOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithHeaders sets extra request headers sent with every fetch.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every fetch.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHTTPClient replaces the underlying HTTP client.
// Useful for tests and for callers that need a custom transport.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// defaultFetchTimeout bounds a plain fetch when no option overrides it.
const defaultFetchTimeout = 10 * time.Second

// defaultMaxBodySize limits response reads when no option overrides it.
const defaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// defaultUserAgent identifies the crawler when no option overrides it.
const defaultUserAgent = "WebHarvest/1.0 (+https://github.com/webharvest/webharvest)"

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: defaultFetchTimeout},
		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs an HTTP GET against the URL.
// Success requires status 200 exactly; redirects are followed by the
// underlying client, so a 200 after redirect still succeeds. There are
// no retries at this layer.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) FetchOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return FetchOutcome{}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchOutcome{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchOutcome{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return FetchOutcome{StatusCode: resp.StatusCode}
	}

	return FetchOutcome{Content: body, OK: true, StatusCode: resp.StatusCode}
}

// Close implements Fetcher. A plain HTTP fetcher holds no scoped
// resources beyond the client's idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
