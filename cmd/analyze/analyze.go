// Package analyze implements the analysis queue subcommands. The content
// analyzers themselves are external collaborators; this command drives
// the per-case work queue through whichever analyzer the build registers.
package analyze

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forenstiq/forenstiq-go/internal/analysis"
	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
)

// registeredAnalyzer is the analysis collaborator wired in at build time.
// The open-source build ships without one; ProcessQueue reports that
// cleanly instead of pretending files were analyzed.
var registeredAnalyzer analysis.Analyzer

// Command creates the analyze command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Drive evidence files through the analysis collaborator",
	}
	cmd.AddCommand(statusCommand(settings), runCommand(settings))
	return cmd
}

func openStore(settings *conf.Settings) (datastore.Interface, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, fmt.Errorf("no case store enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

func statusCommand(settings *conf.Settings) *cobra.Command {
	var caseNumber string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the size of a case's unprocessed-file queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			c, err := store.GetCaseByNumber(caseNumber)
			if err != nil {
				return err
			}
			count, err := store.GetUnprocessedCount(c.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Case %s: %d files awaiting analysis\n", c.CaseNumber, count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseNumber, "case", "c", "", "Case number (required)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func runCommand(settings *conf.Settings) *cobra.Command {
	var caseNumber string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drain the unprocessed-file queue through the registered analyzer",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			c, err := store.GetCaseByNumber(caseNumber)
			if err != nil {
				return err
			}

			svc := analysis.NewService(store, registeredAnalyzer, nil, nil)
			stats, err := svc.ProcessQueue(cmd.Context(), c.ID, func(current, total int, message string) {
				fmt.Fprintf(os.Stderr, "\r[%d/%d] %-60.60s", current, total, message)
			})
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			fmt.Printf("Analyzed %d of %d files (%d errors)\n", stats.Analyzed, stats.Total, stats.Errors)
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseNumber, "case", "c", "", "Case number (required)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}
