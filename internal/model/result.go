package model

import "time"

// CrawlResult is the final output of one crawl run.
//
// Records holds every extracted record in completion order. Completion
// order is not deterministic under concurrent execution, so consumers
// validating results should treat Records as a multiset keyed by URL.
type CrawlResult struct {
	// Records are the extracted records, one per successfully
	// extracted page. Pages that failed to fetch produce no record.
	Records []Record `json:"records"`

	// VisitedCount is the final size of the visited set. Every
	// record's URL is a member of the visited set, and no URL was
	// fetched more than once during the run.
	VisitedCount int `json:"visited_count"`

	// Recorded is the number of tasks that produced a record.
	Recorded int `json:"recorded"`

	// Skipped is the number of tasks dropped before dispatch because
	// their URL was already visited.
	Skipped int `json:"skipped"`

	// Failed is the number of tasks whose fetch or processing failed.
	// Failed URLs are still counted in VisitedCount.
	Failed int `json:"failed"`

	// StartTime and EndTime bound the run's wall-clock duration.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns the wall-clock duration of the run.
func (r *CrawlResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
