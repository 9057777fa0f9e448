package report

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/webharvest/webharvest/internal/model"
)

// MarkdownWriter outputs crawl reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFieldCoverage(md, report)
	w.writeHosts(md, report)
	w.writeRecords(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and crawl metadata.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", report.StartURL},
			{"Domain", report.Domain},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")
}

// writeSummary writes the page counters.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Pages Visited", "Records", "Skipped", "Failed"},
		Rows: [][]string{{
			strconv.Itoa(report.PagesVisited),
			strconv.Itoa(report.Recorded),
			strconv.Itoa(report.Skipped),
			strconv.Itoa(report.Failed),
		}},
	})
	md.PlainText("")

	if report.Failed > 0 {
		md.Warningf("%d pages failed to fetch or parse.", report.Failed)
		md.PlainText("")
	}
}

// writeFieldCoverage writes the per-field extraction yield.
func (w *MarkdownWriter) writeFieldCoverage(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.FieldCoverage) == 0 {
		return
	}

	md.H2("Field Coverage")
	md.PlainText("")

	rows := make([][]string, 0, len(report.FieldCoverage))
	for _, fc := range report.FieldCoverage {
		rows = append(rows, []string{fc.Field, strconv.Itoa(fc.Pages), strconv.Itoa(report.Recorded)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Field", "Pages With Value", "Records"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeHosts writes where the recorded pages came from.
func (w *MarkdownWriter) writeHosts(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.HostCounts) == 0 {
		return
	}

	md.H2("Hosts")
	md.PlainText("")

	rows := make([][]string, 0, len(report.HostCounts))
	for _, hc := range report.HostCounts {
		rows = append(rows, []string{hc.Host, strconv.Itoa(hc.Pages)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// recordTableLimit caps how many records the markdown report inlines.
const recordTableLimit = 50

// writeRecords writes the extracted data itself, one row per page.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Records) == 0 {
		return
	}

	md.H2("Records")
	md.PlainText("")

	fields := unionFields(report.Records)
	header := append([]string{"URL"}, fields...)

	limit := min(len(report.Records), recordTableLimit)
	rows := make([][]string, 0, limit)
	for _, record := range report.Records[:limit] {
		row := []string{record.URL()}
		for _, field := range fields {
			row = append(row, strings.Join(record.Strings(field), ", "))
		}
		rows = append(rows, row)
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Records) > recordTableLimit {
		md.PlainTextf("Showing %d of %d records.", recordTableLimit, len(report.Records))
		md.PlainText("")
	}
}

// writeFooter writes the report trailer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [WebHarvest](https://github.com/webharvest/webharvest)*")
}

// unionFields collects the sorted union of field names across records.
func unionFields(records []model.Record) []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, record := range records {
		for _, field := range record.Fields() {
			if _, ok := seen[field]; !ok {
				seen[field] = struct{}{}
				fields = append(fields, field)
			}
		}
	}
	// Fields() is sorted per record; the union across records is not
	sort.Strings(fields)
	return fields
}
