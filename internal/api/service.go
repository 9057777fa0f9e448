package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/webharvest/webharvest/internal/config"
	"github.com/webharvest/webharvest/internal/crawler"
	"github.com/webharvest/webharvest/internal/database"
	"github.com/webharvest/webharvest/internal/model"
	"github.com/webharvest/webharvest/internal/robots"
)

// JobRequest is the body of a job creation call.
type JobRequest struct {
	// URL is the page the crawl starts at.
	URL string `json:"url" binding:"required"`

	// MaxDepth overrides the server's default traversal depth.
	MaxDepth *int `json:"max_depth,omitempty"`

	// MaxWorkers overrides the server's default wave size.
	MaxWorkers *int `json:"max_workers,omitempty"`

	// Selectors maps field names to CSS paths to extract per page.
	Selectors map[string]string `json:"selectors,omitempty"`

	// Render fetches pages through the headless browser.
	Render bool `json:"render,omitempty"`

	// RestrictDomain keeps the crawl on the start URL's host.
	// Defaults to the server's setting when omitted.
	RestrictDomain *bool `json:"restrict_domain,omitempty"`
}

// RunFunc executes one crawl job, publishing progress to the observer.
// Replaceable in tests, where no real crawl should run.
type RunFunc func(ctx context.Context, req JobRequest, observer crawler.StatusObserver) error

// Service wires the HTTP handlers to the crawler and the record store.
type Service struct {
	cfg    *config.Config
	store  *database.Store
	jobs   *JobStore
	logger *slog.Logger
	run    RunFunc
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRunFunc replaces the crawl execution, for tests.
func WithRunFunc(run RunFunc) ServiceOption {
	return func(s *Service) {
		s.run = run
	}
}

// NewService creates a Service backed by the given store.
func NewService(cfg *config.Config, store *database.Store, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:    cfg,
		store:  store,
		jobs:   NewJobStore(),
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.run == nil {
		s.run = s.runCrawl
	}

	return s
}

// Jobs exposes the job store, primarily for tests.
func (s *Service) Jobs() *JobStore {
	return s.jobs
}

// StartJob validates the request, registers a job, and launches the
// crawl in the background. It returns the job ID immediately; progress
// is polled through the job endpoints, and StopJob aborts the crawl.
func (s *Service) StartJob(req JobRequest) (string, error) {
	seed, err := crawler.Normalize(req.URL)
	if err != nil {
		return "", err
	}
	if err := crawler.ParseSelectorMap(req.Selectors).Validate(); err != nil {
		return "", err
	}

	depth := s.cfg.MaxDepth
	if req.MaxDepth != nil {
		if *req.MaxDepth < 0 {
			return "", fmt.Errorf("max_depth must not be negative")
		}
		depth = *req.MaxDepth
	}

	// The run works on the normalized seed, so every downstream consumer
	// (robots fetch, crawl, snapshots) sees one canonical URL.
	req.URL = seed

	ctx, cancel := context.WithCancel(context.Background())
	id := s.jobs.Create(seed, depth, cancel)
	observer := s.jobs.Observer(id)

	go func() {
		defer cancel()
		err := s.run(ctx, req, observer)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			s.logger.Info("crawl job stopped", "job_id", id)
		default:
			s.logger.Error("crawl job failed", "job_id", id, "error", err)
			s.jobs.Fail(id, err.Error())
		}
	}()

	s.logger.Info("crawl job started", "job_id", id, "start_url", seed)
	return id, nil
}

// StopJob aborts a running job's crawl. Stopping an already-finished
// job is a no-op that reports its final status; the second return is
// false when no job with that ID exists.
func (s *Service) StopJob(id string) (model.JobStatus, bool) {
	status, ok := s.jobs.Stop(id)
	if ok {
		s.logger.Info("crawl job stop requested", "job_id", id, "status", status.Status)
	}
	return status, ok
}

// runCrawl builds a crawler from the request and server defaults and
// runs it to completion.
func (s *Service) runCrawl(ctx context.Context, req JobRequest, observer crawler.StatusObserver) error {
	fetcher, err := s.buildFetcher(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			s.logger.Warn("failed to close fetcher", "error", err)
		}
	}()

	depth := s.cfg.MaxDepth
	if req.MaxDepth != nil {
		depth = *req.MaxDepth
	}
	workers := s.cfg.MaxWorkers
	if req.MaxWorkers != nil && *req.MaxWorkers > 0 {
		workers = *req.MaxWorkers
	}
	restrict := s.cfg.RestrictDomain
	if req.RestrictDomain != nil {
		restrict = *req.RestrictDomain
	}

	opts := []crawler.Option{
		crawler.WithMaxDepth(depth),
		crawler.WithMaxWorkers(workers),
		crawler.WithRestrictDomain(restrict),
		crawler.WithObserver(observer),
		crawler.WithLogger(s.logger),
	}
	if s.store != nil {
		opts = append(opts, crawler.WithSink(s.store))
	}
	if s.cfg.RespectRobots {
		rules, err := robots.Fetch(ctx, req.URL, s.cfg.UserAgent)
		if err != nil {
			return err
		}
		opts = append(opts, crawler.WithPolicy(rules))
	}

	c := crawler.New(fetcher, opts...)
	_, err = c.Crawl(ctx, req.URL, crawler.ParseSelectorMap(req.Selectors))
	return err
}

// buildFetcher creates the fetcher a job asked for.
func (s *Service) buildFetcher(req JobRequest) (crawler.Fetcher, error) {
	plain := crawler.NewHTTPFetcher(
		crawler.WithTimeout(s.cfg.FetchTimeout),
		crawler.WithUserAgent(s.cfg.UserAgent),
		crawler.WithMaxBodySize(s.cfg.MaxBodySize),
	)

	if !req.Render {
		return plain, nil
	}

	return crawler.NewRenderFetcher(
		crawler.WithRenderTimeout(s.cfg.RenderTimeout),
		crawler.WithSettleDelay(s.cfg.SettleDelay),
		crawler.WithFallback(plain),
		crawler.WithRenderLogger(s.logger),
	)
}
