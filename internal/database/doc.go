// Package database provides SQLite-based persistence for extracted
// crawl records.
//
// The Store keeps one JSON document per crawled URL in the
// crawled_pages table; re-crawling a page replaces its row. It
// implements the crawler's record sink, and additionally serves the
// query side: substring lookup, pagination, summary statistics, and
// deletion.
//
// It uses modernc.org/sqlite, a pure-Go SQLite implementation, avoiding
// CGO dependencies.
package database
