package crawler

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	"github.com/webharvest/webharvest/internal/model"
)

// SelectorKind identifies the query language of a Selector.
// Only CSS paths are supported today; the tag exists so stored selector
// maps stay forward-compatible if another kind is ever added.
type SelectorKind string

// KindCSS selects nodes by CSS path (the only supported kind).
const KindCSS SelectorKind = "css"

// Selector is a declarative query identifying nodes within a parsed
// document.
//
// Design decision: We represent selectors as tagged values rather than
// free-form strings so they can be validated once at crawl start instead
// of failing page by page, and so a malformed selector map is an
// unrecoverable configuration error rather than a silent per-page miss.
type Selector struct {
	// Kind is the query language. Empty means KindCSS.
	Kind SelectorKind `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Query is the CSS path, e.g. "article h1" or "ul.tags > li".
	Query string `yaml:"query" json:"query"`

	// Join, when non-empty, collapses a multi-node match into a single
	// string by joining the per-node texts with this separator. The
	// extraction cardinality rule then sees exactly one value.
	Join string `yaml:"join,omitempty" json:"join,omitempty"`
}

// SelectorMap maps field names to selectors.
type SelectorMap map[string]Selector

// ParseSelectorMap builds a SelectorMap from plain field→CSS-path pairs,
// the form accepted on the command line and in config files.
func ParseSelectorMap(raw map[string]string) SelectorMap {
	if len(raw) == 0 {
		return nil
	}
	m := make(SelectorMap, len(raw))
	for field, query := range raw {
		m[field] = Selector{Kind: KindCSS, Query: query}
	}
	return m
}

// Validate checks every selector in the map and returns an error
// describing the first invalid entry. A nil or empty map is valid
// (crawling without extraction).
//
// Validation happens before any traversal begins: a malformed selector
// map must abort the run up front, never mid-crawl.
func (m SelectorMap) Validate() error {
	for field, sel := range m {
		if field == "" {
			return fmt.Errorf("selector map contains an empty field name")
		}
		if field == model.FieldURL {
			return fmt.Errorf("field name %q is reserved", model.FieldURL)
		}
		if sel.Kind != "" && sel.Kind != KindCSS {
			return fmt.Errorf("field %q: unsupported selector kind %q", field, sel.Kind)
		}
		if sel.Query == "" {
			return fmt.Errorf("field %q: empty selector", field)
		}
		if _, err := cascadia.Parse(sel.Query); err != nil {
			return fmt.Errorf("field %q: invalid selector %q: %w", field, sel.Query, err)
		}
	}
	return nil
}
