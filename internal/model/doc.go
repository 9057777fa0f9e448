// Package model defines the data types shared across WebHarvest.
//
// The types here are plain data with no behavior beyond convenience
// accessors:
//   - Record: the extracted fields of one crawled page
//   - CrawlResult: the aggregate output of one crawl run
//   - JobStatus: a polling snapshot of a run's observable state
//
// Design decision: We keep these in a dedicated package rather than in
// the crawler package because the database, report, and api packages all
// consume them, and importing the crawler (with its chromedp dependency)
// just for data types would bloat those packages' dependency graphs.
package model
