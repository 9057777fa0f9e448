package database

import (
	"context"
	"testing"

	"github.com/webharvest/webharvest/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return store
}

func testRecord(url, title string) model.Record {
	r := model.NewRecord(url)
	r["title"] = title
	return r
}

func TestOpenRequiresExistingDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := Options{CreateIfNotExists: false, EnableWAL: true}

	if _, err := Open(dir, opts); err == nil {
		t.Fatal("expected error opening missing database without create option")
	}

	// After a store has been created, opening without create succeeds
	store, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	store, err = Open(dir, opts)
	if err != nil {
		t.Fatalf("Open() on existing database: %v", err)
	}
	defer store.Close()
}

func TestStoreSaveAndFetch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("https://example.com/a", "Page A")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save(ctx, testRecord("https://example.com/b", "Page B")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save(ctx, testRecord("https://other.org/c", "Page C")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Run("substring filter", func(t *testing.T) {
		records, err := store.FetchByURL(ctx, "example.com", 0)
		if err != nil {
			t.Fatalf("FetchByURL() error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
	})

	t.Run("empty substring matches everything", func(t *testing.T) {
		records, err := store.FetchByURL(ctx, "", 0)
		if err != nil {
			t.Fatalf("FetchByURL() error: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}
	})

	t.Run("limit caps results", func(t *testing.T) {
		records, err := store.FetchByURL(ctx, "", 1)
		if err != nil {
			t.Fatalf("FetchByURL() error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
	})

	t.Run("no match yields empty", func(t *testing.T) {
		records, err := store.FetchByURL(ctx, "absent.example", 0)
		if err != nil {
			t.Fatalf("FetchByURL() error: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("got %d records, want 0", len(records))
		}
	})
}

func TestStoreSaveReplacesOnURLConflict(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("https://example.com/", "First")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save(ctx, testRecord("https://example.com/", "Second")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 after re-crawl of same URL", count)
	}

	records, err := store.FetchByURL(ctx, "example.com", 1)
	if err != nil {
		t.Fatalf("FetchByURL() error: %v", err)
	}
	if len(records) != 1 || records[0]["title"] != "Second" {
		t.Errorf("stored record = %v, want latest snapshot with title %q", records, "Second")
	}
}

func TestStoreRoundTripsListValues(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	record := model.NewRecord("https://example.com/tags")
	record["tags"] = []string{"go", "crawler", "sqlite"}
	record["missing"] = nil

	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	records, err := store.FetchByURL(ctx, "tags", 1)
	if err != nil {
		t.Fatalf("FetchByURL() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	got := records[0].Strings("tags")
	want := []string{"go", "crawler", "sqlite"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tags = %v, want %v", got, want)
		}
	}

	if v, ok := records[0]["missing"]; !ok || v != nil {
		t.Errorf("missing field = %#v (present %v), want explicit nil", v, ok)
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	for _, u := range []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
	} {
		if err := store.Save(ctx, testRecord(u, "page")); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	pages, err := store.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	for _, page := range pages {
		if page.URL == "" || page.Record == nil {
			t.Errorf("incomplete page row: %+v", page)
		}
		if page.CrawlDate.IsZero() {
			t.Errorf("page %s has zero crawl date", page.URL)
		}
	}

	rest, err := store.List(ctx, 10, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("got %d pages after offset 2, want 1", len(rest))
	}
}

func TestStoreStats(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	for _, u := range []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://other.org/c",
	} {
		if err := store.Save(ctx, testRecord(u, "page")); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}

	if stats.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", stats.TotalPages)
	}
	if len(stats.TopDomains) != 2 {
		t.Fatalf("got %d domains, want 2", len(stats.TopDomains))
	}
	if stats.TopDomains[0].Domain != "example.com" || stats.TopDomains[0].Count != 2 {
		t.Errorf("top domain = %+v, want example.com with 2 pages", stats.TopDomains[0])
	}
	if len(stats.RecentActivity) == 0 {
		t.Error("expected at least one activity entry")
	}
}

func TestStoreDeleteByURL(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("https://example.com/x", "X")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	deleted, err := store.DeleteByURL(ctx, "https://example.com/x")
	if err != nil {
		t.Fatalf("DeleteByURL() error: %v", err)
	}
	if !deleted {
		t.Error("expected deletion of existing row")
	}

	deleted, err = store.DeleteByURL(ctx, "https://example.com/x")
	if err != nil {
		t.Fatalf("DeleteByURL() error: %v", err)
	}
	if deleted {
		t.Error("expected no deletion for absent row")
	}
}

func TestStoreSaveRejectsRecordWithoutURL(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if err := store.Save(context.Background(), model.Record{"title": "orphan"}); err == nil {
		t.Error("expected error saving record without URL")
	}
}
