package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webharvest/webharvest/internal/crawler"
	"github.com/webharvest/webharvest/internal/model"
)

// Job is a crawl job's identifier plus its latest status snapshot.
type Job struct {
	ID string `json:"id"`
	model.JobStatus
}

// JobStore tracks crawl jobs in memory. Each job holds the most recent
// status snapshot published by its crawler; the store itself never
// inspects or mutates snapshots.
//
// Design decision: Jobs live in memory, not in the database. A job is a
// handle on a running process; after a restart the process is gone, so
// a persisted job row would only ever describe something unresumable.
// Crawl results themselves are persisted through the record store.
type JobStore struct {
	// mu guards jobs, cancels, and order.
	mu      sync.RWMutex
	jobs    map[string]model.JobStatus
	cancels map[string]context.CancelFunc
	order   []string
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[string]model.JobStatus),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Create registers a new job and returns its ID.
// The job starts in the running state; the crawler's snapshots take
// over from the first wave on. The cancel func aborts the job's crawl
// context when Stop is called for it.
func (s *JobStore) Create(startURL string, maxDepth int, cancel context.CancelFunc) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = model.JobStatus{
		Status:    model.StatusRunning,
		StartURL:  startURL,
		MaxDepth:  maxDepth,
		StartTime: time.Now(),
	}
	s.cancels[id] = cancel
	s.order = append(s.order, id)

	return id
}

// Observer returns a status observer that stores every published
// snapshot under the job's ID. Snapshots arriving after the job reached
// a terminal state are dropped, so a stop cannot be overwritten by a
// wave that was already draining.
func (s *JobStore) Observer(id string) crawler.StatusObserver {
	return crawler.ObserverFunc(func(status model.JobStatus) {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.jobs[id]
		if !ok || current.Done() {
			return
		}
		s.jobs[id] = status
	})
}

// Stop cancels a running job's crawl context and marks it stopped.
// Stopping a job that already reached a terminal state leaves its
// status untouched; the second return reports whether the job exists.
func (s *JobStore) Stop(id string) (model.JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok {
		return model.JobStatus{}, false
	}
	if status.Done() {
		return status, true
	}

	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}

	status.Status = model.StatusStopped
	status.EndTime = time.Now()
	s.jobs[id] = status
	return status, true
}

// Fail marks a job as errored. Used when a crawl aborts before its
// crawler could publish a terminal snapshot. A job already in a
// terminal state keeps it.
func (s *JobStore) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok || status.Done() {
		return
	}
	status.Status = model.StatusError
	status.ErrorMessage = message
	status.EndTime = time.Now()
	s.jobs[id] = status
}

// Get returns a job's latest status snapshot.
func (s *JobStore) Get(id string) (model.JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.jobs[id]
	return status, ok
}

// List returns all jobs, newest first.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		jobs = append(jobs, Job{ID: id, JobStatus: s.jobs[id]})
	}
	return jobs
}
