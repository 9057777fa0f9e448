// Package api exposes crawl control and stored data over HTTP.
//
// The API is built on gin. A Service ties the handlers to the crawler
// and the record store; crawl jobs run asynchronously and are tracked
// in an in-memory JobStore, with each job's status updated from the
// crawler's own progress snapshots.
package api
