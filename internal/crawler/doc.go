// Package crawler implements breadth-first website traversal with
// declarative field extraction.
//
// The package is organized around four cooperating components:
//
//   - Fetcher retrieves page content, either with plain HTTP GET
//     (HTTPFetcher) or through a shared headless browser session
//     (RenderFetcher) with automatic per-URL fallback to plain fetch.
//   - ExtractFields applies a user-supplied CSS selector map to fetched
//     content and produces one record per page.
//   - DiscoverLinks mines fetched content for outbound hyperlinks,
//     resolving them to absolute form.
//   - Crawler ties them together: it walks the site wave by wave from a
//     start URL, bounded by depth and worker count, deduplicating
//     against a per-run visited set and pushing records into a Sink.
//
// All traversal state is allocated per Crawl call, so a single Crawler
// can serve concurrent runs. One failing page never aborts a run; it is
// counted in the result and the traversal moves on.
package crawler
