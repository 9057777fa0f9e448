package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldURL is the reserved field name carrying the page URL.
// Every Record has this field; selector maps must not redefine it.
const FieldURL = "url"

// Record is the extracted data for a single crawled page.
//
// A Record maps field names to extracted values. Values follow the
// extraction cardinality rule:
//   - nil when the selector matched no nodes
//   - string when the selector matched exactly one node
//   - []string when the selector matched two or more nodes (document order)
//
// Records are immutable once produced by the extractor; ownership passes
// to the sink when the traversal engine emits them.
type Record map[string]any

// NewRecord creates a Record carrying only the page URL.
func NewRecord(url string) Record {
	return Record{FieldURL: url}
}

// URL returns the page URL the record was extracted from.
// Returns the empty string if the record has no URL field, which only
// happens for records not produced by the extractor.
func (r Record) URL() string {
	if u, ok := r[FieldURL].(string); ok {
		return u
	}
	return ""
}

// Fields returns the record's field names in sorted order, excluding
// the reserved URL field. Sorting keeps report output deterministic.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for k := range r {
		if k == FieldURL {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Strings returns the value of a field normalized to a string slice.
// A nil value yields nil, a scalar yields a one-element slice, and a
// list is returned as-is. This is a convenience for report generation;
// it does not change the stored cardinality.
func (r Record) Strings(field string) []string {
	switch v := r[field].(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	default:
		return []string{fmt.Sprint(v)}
	}
}

// Clone returns a shallow copy of the record.
// Value slices are copied so the clone cannot alias the original's lists.
func (r Record) Clone() Record {
	clone := make(Record, len(r))
	for k, v := range r {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			clone[k] = cp
			continue
		}
		clone[k] = v
	}
	return clone
}

// UnmarshalRecord decodes a Record from its JSON representation as
// stored in the database. JSON arrays are restored to []string so the
// cardinality rule survives a round trip through storage.
func UnmarshalRecord(data []byte) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	rec := make(Record, len(raw))
	for k, v := range raw {
		list, ok := v.([]any)
		if !ok {
			rec[k] = v
			continue
		}
		strs := make([]string, 0, len(list))
		for _, item := range list {
			strs = append(strs, fmt.Sprint(item))
		}
		rec[k] = strs
	}
	return rec, nil
}
