package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL string for deduplication.
//
// Normalization rules:
//   - a missing scheme defaults to https
//   - the fragment is stripped (it never changes page content)
//   - an empty path becomes "/" so "https://example.com" and
//     "https://example.com/" dedupe to the same URL
//   - scheme and host are lowercased
//
// The query string is preserved because it usually selects different
// content. Normalize is idempotent: applying it twice yields the same
// string as applying it once.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("cannot normalize empty URL")
	}

	// Default to https when no scheme is given ("example.com")
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", raw)
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Empty path and "/" are the same resource
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// SameHost reports whether the URL's host matches baseHost exactly.
// The comparison is case-insensitive but does no subdomain folding:
// "blog.example.com" is foreign to "example.com".
func SameHost(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, baseHost)
}

// Host extracts the host component from a URL string.
// Returns the empty string if the URL cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
