package cmd

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forenstiq/forenstiq-go/cmd/analyze"
	"github.com/forenstiq/forenstiq-go/cmd/cases"
	"github.com/forenstiq/forenstiq-go/cmd/config"
	"github.com/forenstiq/forenstiq-go/cmd/hashes"
	"github.com/forenstiq/forenstiq-go/cmd/ingest"
	"github.com/forenstiq/forenstiq-go/cmd/search"
	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/observability"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forenstiq",
		Short: "Forenstiq evidence ingestion and search CLI",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	metrics := pipelineMetrics()

	subcommands := []*cobra.Command{
		cases.Command(settings),
		ingest.Command(settings, metrics),
		search.Command(settings),
		hashes.Command(settings, metrics),
		analyze.Command(settings),
		config.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// pipelineMetrics registers the pipeline collectors on the process-wide
// registry. The pipeline treats a nil *Metrics as "no metrics", so a
// registration failure degrades to that instead of aborting the CLI.
func pipelineMetrics() *observability.Metrics {
	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		slog.Warn("Failed to register pipeline metrics", "error", err)
		return nil
	}
	return metrics
}

// setupFlags configures the global flags for the root command and binds
// them to viper so command-line arguments take precedence over the
// config file.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVar(&settings.Ingest.Workers, "workers", viper.GetInt("ingest.workers"), "Number of parallel ingestion workers")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite case database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
