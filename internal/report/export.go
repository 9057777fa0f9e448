package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/webharvest/webharvest/internal/model"
)

// ExportJSON writes records as a pretty-printed JSON array.
func ExportJSON(w io.Writer, records []model.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []model.Record{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// ExportCSV writes records as CSV with a url column followed by the
// sorted union of all field names. List values are joined with "; ",
// missing fields are empty cells.
func ExportCSV(w io.Writer, records []model.Record) error {
	fields := unionFields(records)
	header := append([]string{model.FieldURL}, fields...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		row := []string{record.URL()}
		for _, field := range fields {
			row = append(row, strings.Join(record.Strings(field), "; "))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
