// Package search implements the forensic search subcommand.
package search

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/search"
)

// Command creates the search command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		caseNumber string
		person     string
		keywords   []string
		fileTypes  []string
		dateFrom   string
		dateTo     string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a case's evidence files by identity, keywords, and date",
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

			criteria := &search.Criteria{
				Person:    person,
				Keywords:  keywords,
				FileTypes: fileTypes,
			}
			if criteria.DateFrom, err = parseDate(dateFrom); err != nil {
				return err
			}
			if criteria.DateTo, err = parseDate(dateTo); err != nil {
				return err
			}

			engine := search.NewEngine(store, nil, nil)
			results, err := engine.Search(cmd.Context(), c.ID, criteria)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Println("No matches")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "HITS\tFILE\tTYPE\tWHY")
			for i := range results {
				r := &results[i]
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					r.Count, r.File.FileName, r.File.FileType,
					strings.Join(r.Explanations, "; "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&caseNumber, "case", "c", "", "Case number to search (required)")
	cmd.Flags().StringVarP(&person, "person", "p", "", "Identity string to match against names and content")
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "Keyword to match (repeatable)")
	cmd.Flags().StringSliceVarP(&fileTypes, "type", "t", nil, "Restrict to file types (repeatable)")
	cmd.Flags().StringVar(&dateFrom, "from", "", "Start of date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "End of date range (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return &date, nil
}
