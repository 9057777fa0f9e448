package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/webharvest/webharvest/internal/model"
)

func sampleReport() *model.CrawlReport {
	result := &model.CrawlResult{
		VisitedCount: 3,
		Recorded:     2,
		Skipped:      1,
		Failed:       1,
		StartTime:    time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2026, 8, 25, 10, 0, 5, 0, time.UTC),
		Records: []model.Record{
			{"url": "https://example.com/a", "title": "Page A", "tags": []string{"go", "web"}},
			{"url": "https://example.com/b", "title": "Page B", "author": nil},
		},
	}
	return model.NewCrawlReport("https://example.com/", result)
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewSimpleWriter(&buf).Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"https://example.com/",
		"Pages visited: 3",
		"Failed:        1",
		"Field coverage:",
		"title",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var decoded model.CrawlReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.StartURL != "https://example.com/" {
		t.Errorf("start_url = %q, want %q", decoded.StartURL, "https://example.com/")
	}
	if decoded.PagesVisited != 3 {
		t.Errorf("pages_visited = %d, want 3", decoded.PagesVisited)
	}
	if len(decoded.Records) != 2 {
		t.Errorf("records = %d, want 2", len(decoded.Records))
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Crawl Report",
		"## Summary",
		"## Field Coverage",
		"## Records",
		"https://example.com/a",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

// failingWriter always errors, for MultiWriter propagation.
type failingWriter struct{}

func (failingWriter) Write(*model.CrawlReport) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all destinations", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		if _, err := mw.Write(sampleReport()); err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected output in both destinations")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := mw.Write(sampleReport()); err == nil {
			t.Fatal("expected propagated error")
		}
		if buf.Len() != 0 {
			t.Error("expected no output after failing writer")
		}
	})
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		{"url": "https://example.com/a", "title": "A", "tags": []string{"x", "y"}},
		{"url": "https://example.com/b", "title": "B"},
	}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, records); err != nil {
		t.Fatalf("ExportCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	wantHeader := []string{"url", "tags", "title"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header = %v, want %v", rows[0], wantHeader)
		}
	}
	if rows[1][1] != "x; y" {
		t.Errorf("list cell = %q, want %q", rows[1][1], "x; y")
	}
	if rows[2][1] != "" {
		t.Errorf("missing field cell = %q, want empty", rows[2][1])
	}
}

func TestExportJSON(t *testing.T) {
	t.Parallel()

	t.Run("round trips records", func(t *testing.T) {
		t.Parallel()

		records := []model.Record{
			{"url": "https://example.com/a", "title": "A"},
		}

		var buf bytes.Buffer
		if err := ExportJSON(&buf, records); err != nil {
			t.Fatalf("ExportJSON() error: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 1 || decoded[0]["title"] != "A" {
			t.Errorf("decoded = %v", decoded)
		}
	})

	t.Run("nil records yield empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := ExportJSON(&buf, nil); err != nil {
			t.Fatalf("ExportJSON() error: %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("output = %q, want %q", got, "[]")
		}
	})
}
