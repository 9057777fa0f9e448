package crawler

import (
	"reflect"
	"testing"
)

const extractorTestPage = `<!DOCTYPE html>
<html>
<head><title>Widgets</title></head>
<body>
  <h1>  Widget Catalog  </h1>
  <ul class="tags">
    <li>cheap</li>
    <li>durable</li>
    <li>blue</li>
  </ul>
  <span class="price">9.99</span>
</body>
</html>`

func TestExtractFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		selectors SelectorMap
		field     string
		want      any
	}{
		{
			name:      "single match unwraps to scalar",
			selectors: SelectorMap{"title": {Query: "h1"}},
			field:     "title",
			want:      "Widget Catalog",
		},
		{
			name:      "multiple matches keep document order",
			selectors: SelectorMap{"tags": {Query: "ul.tags li"}},
			field:     "tags",
			want:      []string{"cheap", "durable", "blue"},
		},
		{
			name:      "zero matches yield explicit nil",
			selectors: SelectorMap{"author": {Query: "span.author"}},
			field:     "author",
			want:      nil,
		},
		{
			name:      "join collapses multiple matches",
			selectors: SelectorMap{"tags": {Query: "ul.tags li", Join: ", "}},
			field:     "tags",
			want:      "cheap, durable, blue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record, err := ExtractFields([]byte(extractorTestPage), "https://example.com/", tt.selectors)
			if err != nil {
				t.Fatalf("ExtractFields() unexpected error: %v", err)
			}

			got, ok := record[tt.field]
			if !ok {
				t.Fatalf("field %q missing from record", tt.field)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("field %q = %#v, want %#v", tt.field, got, tt.want)
			}
		})
	}
}

func TestExtractFieldsRecordCarriesURL(t *testing.T) {
	t.Parallel()

	record, err := ExtractFields([]byte(extractorTestPage), "https://example.com/catalog", SelectorMap{
		"title": {Query: "h1"},
		"price": {Query: "span.price"},
	})
	if err != nil {
		t.Fatalf("ExtractFields() unexpected error: %v", err)
	}

	if got := record.URL(); got != "https://example.com/catalog" {
		t.Errorf("record URL = %q, want %q", got, "https://example.com/catalog")
	}
	if got := record["price"]; got != "9.99" {
		t.Errorf("price = %#v, want %q", got, "9.99")
	}
}

func TestExtractFieldsMissingAndPresentCoexist(t *testing.T) {
	t.Parallel()

	record, err := ExtractFields([]byte(extractorTestPage), "https://example.com/", SelectorMap{
		"title":  {Query: "h1"},
		"author": {Query: "span.author"},
	})
	if err != nil {
		t.Fatalf("ExtractFields() unexpected error: %v", err)
	}

	if record["title"] != "Widget Catalog" {
		t.Errorf("title = %#v, want %q", record["title"], "Widget Catalog")
	}
	if v, ok := record["author"]; !ok || v != nil {
		t.Errorf("author = %#v (present %v), want explicit nil", v, ok)
	}
}
