package model

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// FieldCoverage reports how many pages yielded a value for one field.
type FieldCoverage struct {
	// Field is the selector map field name.
	Field string `json:"field"`

	// Pages is the number of records with a non-nil value for the field.
	Pages int `json:"pages"`
}

// HostCount pairs a host with the number of pages recorded from it.
type HostCount struct {
	// Host is the page host, lowercased.
	Host string `json:"host"`

	// Pages is the number of records from the host.
	Pages int `json:"pages"`
}

// CrawlReport is the human-facing summary of one crawl run.
type CrawlReport struct {
	// StartURL is the normalized URL the crawl began at.
	StartURL string `json:"start_url"`

	// Domain is the start URL's host.
	Domain string `json:"domain"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// PagesVisited is the number of unique URLs claimed during the run.
	PagesVisited int `json:"pages_visited"`

	// Recorded is the number of pages that produced a record.
	Recorded int `json:"recorded"`

	// Skipped is the number of duplicate URLs discarded at dispatch.
	Skipped int `json:"skipped"`

	// Failed is the number of pages that failed to fetch or parse.
	Failed int `json:"failed"`

	// Duration is the wall-clock length of the run.
	Duration time.Duration `json:"duration"`

	// FieldCoverage summarizes extraction yield per field, sorted by
	// field name.
	FieldCoverage []FieldCoverage `json:"field_coverage,omitempty"`

	// HostCounts summarizes where records came from, largest first.
	HostCounts []HostCount `json:"host_counts,omitempty"`

	// Records carries the extracted data itself.
	Records []Record `json:"records,omitempty"`
}

// NewCrawlReport summarizes a finished crawl result.
func NewCrawlReport(startURL string, result *CrawlResult) *CrawlReport {
	report := &CrawlReport{
		StartURL:     startURL,
		GeneratedAt:  time.Now(),
		PagesVisited: result.VisitedCount,
		Recorded:     result.Recorded,
		Skipped:      result.Skipped,
		Failed:       result.Failed,
		Duration:     result.Duration(),
		Records:      result.Records,
	}

	if u, err := url.Parse(startURL); err == nil {
		report.Domain = strings.ToLower(u.Host)
	}

	coverage := make(map[string]int)
	hosts := make(map[string]int)
	for _, record := range result.Records {
		for _, field := range record.Fields() {
			if record[field] != nil {
				coverage[field]++
			}
		}
		if u, err := url.Parse(record.URL()); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)]++
		}
	}

	for field, pages := range coverage {
		report.FieldCoverage = append(report.FieldCoverage, FieldCoverage{Field: field, Pages: pages})
	}
	sort.Slice(report.FieldCoverage, func(i, j int) bool {
		return report.FieldCoverage[i].Field < report.FieldCoverage[j].Field
	})

	for host, pages := range hosts {
		report.HostCounts = append(report.HostCounts, HostCount{Host: host, Pages: pages})
	}
	sort.Slice(report.HostCounts, func(i, j int) bool {
		if report.HostCounts[i].Pages != report.HostCounts[j].Pages {
			return report.HostCounts[i].Pages > report.HostCounts[j].Pages
		}
		return report.HostCounts[i].Host < report.HostCounts[j].Host
	})

	return report
}
