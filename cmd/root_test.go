package cmd

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forenstiq/forenstiq-go/internal/conf"
)

func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "cases.db"
	return settings
}

func TestRootCommandRegistersPipelineMetrics(t *testing.T) {
	root := RootCommand(testSettings())
	require.NotNil(t, root)

	// Building the command tree must leave the pipeline collectors on the
	// process-wide registry, so the ingest and hashes commands record into
	// live collectors rather than nil no-ops.
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["forenstiq_hashes_computed_total"],
		"pipeline collectors should be registered on the default registry")
}

func TestRootCommandSubcommands(t *testing.T) {
	root := RootCommand(testSettings())

	for _, name := range []string{"case", "ingest", "search", "hashes", "analyze", "config"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, "subcommand %q", name)
		assert.Equal(t, name, cmd.Name())
	}
}
