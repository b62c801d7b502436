// Package ingest implements the extraction archive ingestion subcommand.
package ingest

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/extraction"
	"github.com/forenstiq/forenstiq-go/internal/observability"
)

// Command creates the ingest command.
func Command(settings *conf.Settings, metrics *observability.Metrics) *cobra.Command {
	var (
		caseNumber  string
		workers     int
		fullExtract bool
		targetDir   string
	)
	cmd := &cobra.Command{
		Use:   "ingest [archive]",
		Short: "Ingest an extraction archive into a case",
		Long: `Detect the archive's container format, stream its entry table into
the case store, and categorize every file. Content hashing is deferred;
run "forenstiq hashes" afterwards to backfill digests.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no case store enabled in configuration")
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			c, err := store.GetCaseByNumber(caseNumber)
			if err != nil {
				return err
			}

			loader := extraction.NewLoader(store, settings, metrics)
			progress := terminalProgress()

			var stats *extraction.IngestStats
			if fullExtract {
				stats, err = loader.IngestWithExtraction(cmd.Context(), args[0], c.ID, targetDir, progress)
			} else {
				stats, err = loader.Ingest(cmd.Context(), args[0], c.ID, workers, progress)
			}
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			fmt.Printf("Ingested %s into case %s\n", args[0], c.CaseNumber)
			fmt.Printf("  Format:    %s\n", stats.Format)
			fmt.Printf("  Total:     %d\n", stats.Total)
			fmt.Printf("  Processed: %d\n", stats.Processed)
			fmt.Printf("  Errors:    %d\n", stats.Errors)
			fmt.Printf("  Elapsed:   %.2fs (%.1f files/sec)\n", stats.ElapsedSeconds, stats.FilesPerSecond)
			for category, count := range stats.PerCategory {
				fmt.Printf("  %-12s %d\n", string(category)+":", count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseNumber, "case", "c", "", "Case number to ingest into (required)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers, 0 uses the configured default")
	cmd.Flags().BoolVar(&fullExtract, "extract", false, "Extract full file content to disk before importing")
	cmd.Flags().StringVar(&targetDir, "target", "", "Extraction target directory (with --extract)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

// terminalProgress writes an in-place progress line to stderr.
func terminalProgress() extraction.ProgressFunc {
	return func(current, total int, message string) {
		if total <= 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r[%3d%%] %-60.60s", 100*current/total, message)
	}
}
