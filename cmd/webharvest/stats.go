package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webharvest/webharvest/internal/config"
	"github.com/webharvest/webharvest/internal/database"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics about stored records",
		Long:  `Stats summarizes the stored crawl records: totals, top hosts, and recent activity.`,
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	store, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total pages: %d\n", stats.TotalPages)

	if len(stats.TopDomains) > 0 {
		fmt.Fprintln(out, "\nTop domains:")
		for _, dc := range stats.TopDomains {
			fmt.Fprintf(out, "  %-30s %d pages\n", dc.Domain, dc.Count)
		}
	}

	if len(stats.RecentActivity) > 0 {
		fmt.Fprintln(out, "\nRecent activity:")
		for _, dc := range stats.RecentActivity {
			fmt.Fprintf(out, "  %s  %d pages\n", dc.Date, dc.Count)
		}
	}

	return nil
}
