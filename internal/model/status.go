package model

import "time"

// Status is the lifecycle state of a crawl job.
type Status string

// Crawl job lifecycle states.
const (
	// StatusRunning indicates the crawl is in progress.
	StatusRunning Status = "running"

	// StatusCompleted indicates the crawl finished normally.
	StatusCompleted Status = "completed"

	// StatusError indicates the crawl aborted with an error.
	StatusError Status = "error"

	// StatusStopped indicates the crawl was cancelled externally.
	StatusStopped Status = "stopped"
)

// JobStatus is a polling snapshot of one crawl run's observable state.
//
// The traversal engine publishes a fresh snapshot at task-boundary
// granularity (after each completed wave), never per sub-step. Snapshots
// are value copies; readers never share memory with the running crawl.
type JobStatus struct {
	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// StartURL is the seed URL of the run.
	StartURL string `json:"start_url"`

	// MaxDepth is the configured depth bound.
	MaxDepth int `json:"max_depth"`

	// PagesCrawled is the number of URLs visited so far.
	PagesCrawled int `json:"pages_crawled"`

	// Errors counts tasks that failed during the run.
	Errors int `json:"errors"`

	// StartTime is when the run began.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the run reached a terminal state.
	// Zero while the run is still in progress.
	EndTime time.Time `json:"end_time,omitempty"`

	// ErrorMessage describes the failure when Status is StatusError.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Done reports whether the job has reached a terminal state.
func (s JobStatus) Done() bool {
	return s.Status != StatusRunning
}
