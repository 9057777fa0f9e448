package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DiscoverLinks extracts the outbound hyperlinks from fetched content.
//
// Every anchor href is resolved against baseURL to absolute form.
// Resolved URLs with a scheme other than http or https are discarded.
// When restrictDomain is true, URLs whose host differs from baseURL's
// host are discarded; hosts are compared as exact strings, so a
// subdomain counts as a different host.
//
// The returned sequence follows document order and may contain
// duplicates: deduplication is the traversal engine's job, done against
// the visited set at dispatch time.
//
// Design decision: We walk the node tree with golang.org/x/net/html
// instead of reusing the goquery document from extraction because the
// two components are independent consumers of the same fetched content;
// link discovery runs even when no selector map was supplied.
func DiscoverLinks(content []byte, baseURL string, restrictDomain bool) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document at %s: %w", baseURL, err)
	}

	var links []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				if resolved := resolveLink(base, href); resolved != "" {
					if !restrictDomain || strings.EqualFold(Host(resolved), base.Host) {
						links = append(links, resolved)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolveLink resolves an href against the base URL and filters out
// non-navigable targets. Returns the empty string for links that should
// not be followed.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
