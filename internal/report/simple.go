package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/webharvest/webharvest/internal/model"
)

// SimpleWriter outputs a crawl summary as human-readable text for
// terminal display.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in text format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Crawl report for %s\n", report.StartURL)
	fmt.Fprintf(&b, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Pages visited: %d\n", report.PagesVisited)
	fmt.Fprintf(&b, "Records:       %d\n", report.Recorded)
	fmt.Fprintf(&b, "Skipped:       %d\n", report.Skipped)
	fmt.Fprintf(&b, "Failed:        %d\n", report.Failed)
	fmt.Fprintf(&b, "Duration:      %s\n", report.Duration.Round(time.Millisecond))

	if len(report.FieldCoverage) > 0 {
		b.WriteString("\nField coverage:\n")
		for _, fc := range report.FieldCoverage {
			fmt.Fprintf(&b, "  %-20s %d/%d pages\n", fc.Field, fc.Pages, report.Recorded)
		}
	}

	if len(report.HostCounts) > 0 {
		b.WriteString("\nHosts:\n")
		for _, hc := range report.HostCounts {
			fmt.Fprintf(&b, "  %-30s %d pages\n", hc.Host, hc.Pages)
		}
	}

	return w.output.Write([]byte(b.String()))
}
