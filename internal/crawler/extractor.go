package crawler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webharvest/webharvest/internal/model"
)

// ExtractFields applies a selector map to fetched content and produces
// one record.
//
// For each (field, selector) pair the document is queried for all
// matching nodes and their trimmed text collected in document order.
// The value stored per field follows the cardinality rule:
//   - zero matches: the field is explicitly nil, never an empty list,
//     so callers can distinguish "selector found nothing" from
//     "selector matched empty text"
//   - one match: the single string, unwrapped
//   - two or more matches: the ordered slice of strings
//
// A selector with a Join separator collapses multi-node matches into a
// single joined string before the rule applies.
//
// Design decision: We parse with goquery rather than walking the node
// tree by hand because the selector map is user-supplied CSS and goquery
// evaluates arbitrary CSS paths against malformed real-world HTML.
func ExtractFields(content []byte, pageURL string, selectors SelectorMap) (model.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document for %s: %w", pageURL, err)
	}

	record := model.NewRecord(pageURL)

	for field, sel := range selectors {
		var texts []string
		doc.Find(sel.Query).Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(s.Text()))
		})

		switch {
		case len(texts) == 0:
			record[field] = nil
		case sel.Join != "":
			record[field] = strings.Join(texts, sel.Join)
		case len(texts) == 1:
			record[field] = texts[0]
		default:
			record[field] = texts
		}
	}

	return record, nil
}
