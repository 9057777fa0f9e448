package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxRobotsSize limits how many robots.txt bytes are read.
const maxRobotsSize = 512 * 1024

// fetchTimeout bounds the robots.txt request.
const fetchTimeout = 10 * time.Second

// Rules holds the crawl rules a site declares for all user agents.
// Only the wildcard agent group ("*") is honored; per-agent groups for
// other crawlers do not apply to us.
type Rules struct {
	allows    []string
	disallows []string
}

// Allows reports whether a URL path may be crawled under the rules.
// The most specific (longest) matching rule wins, mirroring how major
// crawlers break allow/disallow ties. An empty rule set allows everything.
func (r *Rules) Allows(path string) bool {
	if path == "" {
		path = "/"
	}

	var bestLen int
	allowed := true

	for _, prefix := range r.disallows {
		if prefix != "" && strings.HasPrefix(path, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			allowed = false
		}
	}
	for _, prefix := range r.allows {
		if prefix != "" && strings.HasPrefix(path, prefix) && len(prefix) >= bestLen {
			bestLen = len(prefix)
			allowed = true
		}
	}

	return allowed
}

// Allow implements the crawler's enqueue policy against full URLs.
func (r *Rules) Allow(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return r.Allows(u.Path)
}

// Parse reads robots.txt content and extracts the rules for the
// wildcard user agent. Unknown directives and comments are ignored, as
// is every group addressed to a specific agent.
func Parse(r io.Reader) *Rules {
	rules := &Rules{}

	// A group's rules apply only when its User-agent line(s) include "*".
	// Consecutive User-agent lines share the record that follows them.
	inWildcardGroup := false
	sawRuleInGroup := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		directive, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.TrimSpace(value)

		switch directive {
		case "user-agent":
			if sawRuleInGroup {
				// A new group starts after rules have been seen
				inWildcardGroup = false
				sawRuleInGroup = false
			}
			if value == "*" {
				inWildcardGroup = true
			}
		case "disallow":
			sawRuleInGroup = true
			if inWildcardGroup && value != "" {
				rules.disallows = append(rules.disallows, value)
			}
		case "allow":
			sawRuleInGroup = true
			if inWildcardGroup && value != "" {
				rules.allows = append(rules.allows, value)
			}
		}
	}

	return rules
}

// Fetch downloads and parses the robots.txt for a site.
//
// A missing or failing robots.txt yields empty rules that allow
// everything: absence of the file is not a prohibition. An error is
// returned only when the site URL itself is unusable.
func Fetch(ctx context.Context, siteURL, userAgent string) (*Rules, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid site URL %q: missing host", siteURL)
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return &Rules{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Rules{}, nil
	}

	return Parse(io.LimitReader(resp.Body, maxRobotsSize)), nil
}
