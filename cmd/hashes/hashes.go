// Package hashes implements the lazy hash backfill subcommand.
package hashes

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/extraction"
	"github.com/forenstiq/forenstiq-go/internal/observability"
)

// Command creates the hashes command.
func Command(settings *conf.Settings, metrics *observability.Metrics) *cobra.Command {
	var caseNumber string
	cmd := &cobra.Command{
		Use:   "hashes",
		Short: "Backfill deferred content hashes for a case",
		Long: `Ingestion leaves file hashes empty for speed. This command computes
the sha256 digest of every file in the case that has none, streaming
archive members straight out of their source container.`,
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
			stats, err := loader.BackfillHashes(cmd.Context(), c.ID, func(current, total int, message string) {
				fmt.Fprintf(os.Stderr, "\r[%d/%d] %-60.60s", current, total, message)
			})
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			fmt.Printf("Hashed %d of %d files (%d errors)\n", stats.Processed, stats.Total, stats.Errors)
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseNumber, "case", "c", "", "Case number to backfill (required)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}
