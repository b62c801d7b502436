// Package cases implements the case management subcommands.
package cases

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
)

// Command creates the case command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Create and inspect forensic cases",
	}
	cmd.AddCommand(
		createCommand(settings),
		listCommand(settings),
		statsCommand(settings),
		closeCommand(settings),
	)
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

func createCommand(settings *conf.Settings) *cobra.Command {
	var (
		name         string
		investigator string
		agency       string
		notes        string
		incident     string
	)
	cmd := &cobra.Command{
		Use:   "create [case-number]",
		Short: "Create a new case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			c := &datastore.Case{
				CaseNumber:       args[0],
				CaseName:         name,
				InvestigatorName: investigator,
				AgencyName:       agency,
				Notes:            notes,
			}
			if incident != "" {
				date, err := time.Parse("2006-01-02", incident)
				if err != nil {
					return fmt.Errorf("invalid incident date %q, expected YYYY-MM-DD: %w", incident, err)
				}
				c.IncidentDate = &date
			}
			if err := store.CreateCase(c); err != nil {
				return err
			}
			fmt.Printf("Created case %s (id %d)\n", c.CaseNumber, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Case name")
	cmd.Flags().StringVarP(&investigator, "investigator", "i", "", "Investigator name")
	cmd.Flags().StringVarP(&agency, "agency", "a", "", "Agency name")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text case notes")
	cmd.Flags().StringVar(&incident, "incident-date", "", "Incident date (YYYY-MM-DD)")
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases, most recently modified first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			list, err := store.GetAllCases(status)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tNAME\tSTATUS\tFILES\tFLAGGED\tMODIFIED")
			for i := range list {
				c := &list[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					c.CaseNumber, c.CaseName, c.Status,
					c.TotalFiles, c.TotalFlagged,
					c.LastModified.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (open or closed)")
	return cmd
}

func statsCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [case-number]",
		Short: "Show aggregate statistics for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			c, err := store.GetCaseByNumber(args[0])
			if err != nil {
				return err
			}
			stats, err := store.CaseStatistics(c.ID)
			if err != nil {
				return err
			}

			fmt.Printf("Case %s (%s)\n", c.CaseNumber, c.CaseName)
			fmt.Printf("  Total files:     %d\n", stats.TotalFiles)
			fmt.Printf("  Analyzed:        %d\n", stats.ProcessedFiles)
			fmt.Printf("  Flagged:         %d\n", stats.FlaggedFiles)
			fmt.Printf("  With faces:      %d\n", stats.FilesWithFaces)
			fmt.Printf("  Faces total:     %d\n", stats.TotalFaces)
			return nil
		},
	}
}

func closeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "close [case-number]",
		Short: "Mark a case as closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // exiting anyway

			c, err := store.GetCaseByNumber(args[0])
			if err != nil {
				return err
			}
			status := datastore.StatusClosed
			if err := store.UpdateCase(c.ID, &datastore.CaseUpdate{Status: &status}); err != nil {
				return err
			}
			actor := settings.Analysis.Actor
			if err := store.LogAction(&c.ID, actor, "close_case", map[string]any{"case_number": c.CaseNumber}); err != nil {
				return err
			}
			fmt.Printf("Closed case %s\n", c.CaseNumber)
			return nil
		},
	}
}
