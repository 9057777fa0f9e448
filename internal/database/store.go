package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/webharvest/webharvest/internal/model"
)

// dbFileName is the SQLite database file created inside the data directory.
const dbFileName = "webharvest.db"

// defaultFetchLimit caps FetchByURL results when the caller passes no limit.
const defaultFetchLimit = 100

// Store provides SQLite-based storage for extracted crawl records.
// It implements the crawler's record sink, so a crawl can stream records
// into it as waves complete.
//
// Design decision: Records are stored as one JSON document per URL rather
// than one column per field. Selector maps differ per site and per run, so
// a fixed schema would either churn on every new field or silently drop
// data; a url-keyed JSON column handles any selector map and still lets
// the common queries (by URL, by date) use plain indexes.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One row per crawled page, keyed by URL; re-crawls replace the row
	CREATE TABLE IF NOT EXISTS crawled_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		crawl_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		data_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON crawled_pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_date ON crawled_pages(crawl_date);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Save inserts or updates the record for its URL.
// Re-crawling a page replaces the stored data and refreshes the crawl
// date, so the table always holds the latest snapshot per URL.
func (s *Store) Save(ctx context.Context, record model.Record) error {
	pageURL := record.URL()
	if pageURL == "" {
		return fmt.Errorf("record has no URL")
	}

	dataJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record for %s: %w", pageURL, err)
	}

	query := `
	INSERT INTO crawled_pages (url, data_json)
	VALUES (?, ?)
	ON CONFLICT(url) DO UPDATE SET
		data_json = excluded.data_json,
		crawl_date = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, pageURL, string(dataJSON)); err != nil {
		return fmt.Errorf("failed to save record for %s: %w", pageURL, err)
	}

	return nil
}

// FetchByURL returns stored records whose URL contains the given
// substring, newest first, up to limit. An empty substring matches
// everything; a non-positive limit applies the default.
func (s *Store) FetchByURL(ctx context.Context, urlSubstr string, limit int) ([]model.Record, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	query := `
	SELECT data_json FROM crawled_pages
	WHERE url LIKE '%' || ? || '%'
	ORDER BY crawl_date DESC, id DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, urlSubstr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var dataJSON string
		if err := rows.Scan(&dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		record, err := model.UnmarshalRecord([]byte(dataJSON))
		if err != nil {
			continue // Skip malformed rows
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// StoredPage is one row of the crawled_pages table with its record decoded.
type StoredPage struct {
	// ID is the row's unique identifier.
	ID int64

	// URL is the crawled page URL.
	URL string

	// CrawlDate is when the page was last saved.
	CrawlDate time.Time

	// Record holds the extracted fields.
	Record model.Record
}

// List returns stored pages newest first, paginated by limit and offset.
func (s *Store) List(ctx context.Context, limit, offset int) ([]StoredPage, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
	SELECT id, url, crawl_date, data_json FROM crawled_pages
	ORDER BY crawl_date DESC, id DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []StoredPage
	for rows.Next() {
		var page StoredPage
		var crawlDate string
		var dataJSON string

		if err := rows.Scan(&page.ID, &page.URL, &crawlDate, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.CrawlDate = parseTimestamp(crawlDate)

		record, err := model.UnmarshalRecord([]byte(dataJSON))
		if err != nil {
			continue // Skip malformed rows
		}
		page.Record = record

		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// Count returns the number of stored pages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawled_pages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// DomainCount pairs a host with how many of its pages are stored.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// DateCount pairs a calendar date with how many pages were saved on it.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Stats summarizes the stored data.
type Stats struct {
	// TotalPages is the number of stored pages.
	TotalPages int64 `json:"total_pages"`

	// TopDomains lists the most-crawled hosts, largest first.
	TopDomains []DomainCount `json:"top_domains"`

	// RecentActivity lists pages saved per day, newest first.
	RecentActivity []DateCount `json:"recent_activity"`
}

// statsTopN bounds the top-domains and recent-activity lists.
const statsTopN = 10

// Stats computes summary statistics over the stored pages.
//
// Domains are counted in Go rather than SQL because extracting a host
// from a URL in SQLite takes fragile string arithmetic; the URL list is
// small enough to walk.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var err error
	stats.TotalPages, err = s.Count(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT url FROM crawled_pages")
	if err != nil {
		return nil, fmt.Errorf("failed to query URLs: %w", err)
	}
	defer rows.Close()

	domains := make(map[string]int64)
	for rows.Next() {
		var pageURL string
		if err := rows.Scan(&pageURL); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
			domains[strings.ToLower(u.Host)]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for domain, count := range domains {
		stats.TopDomains = append(stats.TopDomains, DomainCount{Domain: domain, Count: count})
	}
	sort.Slice(stats.TopDomains, func(i, j int) bool {
		if stats.TopDomains[i].Count != stats.TopDomains[j].Count {
			return stats.TopDomains[i].Count > stats.TopDomains[j].Count
		}
		return stats.TopDomains[i].Domain < stats.TopDomains[j].Domain
	})
	if len(stats.TopDomains) > statsTopN {
		stats.TopDomains = stats.TopDomains[:statsTopN]
	}

	activityQuery := `
	SELECT substr(crawl_date, 1, 10) AS day, COUNT(*) FROM crawled_pages
	GROUP BY day
	ORDER BY day DESC
	LIMIT ?
	`
	activityRows, err := s.db.QueryContext(ctx, activityQuery, statsTopN)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer activityRows.Close()

	for activityRows.Next() {
		var dc DateCount
		if err := activityRows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		stats.RecentActivity = append(stats.RecentActivity, dc)
	}

	return stats, activityRows.Err()
}

// DeleteByURL removes the stored page for an exact URL.
// Returns true when a row was deleted.
func (s *Store) DeleteByURL(ctx context.Context, pageURL string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM crawled_pages WHERE url = ?", pageURL)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", pageURL, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return n > 0, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
