package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/webharvest/webharvest/internal/config"
	"github.com/webharvest/webharvest/internal/database"
	"github.com/webharvest/webharvest/internal/report"
)

// exportFetchLimit caps how many records one export reads.
const exportFetchLimit = 100000

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <json|csv>",
		Short: "Export stored records",
		Long: `Export dumps the stored crawl records in the given format.

Examples:
  # Print all records as JSON
  webharvest export json

  # Write records from one site to a CSV file
  webharvest export csv --url example.com -o example.csv`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "csv"},
		RunE:      runExportCmd,
	}

	cmd.Flags().String("url", "",
		"Only export records whose URL contains this substring")
	cmd.Flags().StringP("output", "o", "",
		"Write to specified file path instead of stdout")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, args []string) error {
	format := args[0]
	if format != "json" && format != "csv" {
		return fmt.Errorf("unsupported format %q (use json or csv)", format)
	}

	urlFilter, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Export never creates a database: nothing crawled means nothing to export
	store, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	records, err := store.FetchByURL(cmd.Context(), urlFilter, exportFetchLimit)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	var output io.Writer = os.Stdout
	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	switch format {
	case "json":
		err = report.ExportJSON(output, records)
	case "csv":
		err = report.ExportCSV(output, records)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if outputPath != "" {
		fmt.Printf("Exported %d records to %s\n", len(records), outputPath)
	}
	return nil
}
