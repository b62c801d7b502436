package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSettingsDefaults(t *testing.T) {
	settings := &Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "cases.db"

	require.NoError(t, ValidateSettings(settings))

	assert.Equal(t, 8, settings.Ingest.MaxWorkers, "max workers should fall back to 8")
	assert.Equal(t, 100*time.Millisecond, settings.Ingest.RetryBackoff)
	assert.Equal(t, "System", settings.Analysis.Actor)
}

func TestValidateSettingsRejectsDualStores(t *testing.T) {
	settings := &Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "cases.db"
	settings.Output.MySQL.Enabled = true

	assert.Error(t, ValidateSettings(settings))
}

func TestValidateSettingsRequiresStore(t *testing.T) {
	settings := &Settings{}
	assert.Error(t, ValidateSettings(settings))
}

func TestValidateSettingsRejectsNegativeWorkers(t *testing.T) {
	settings := &Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "cases.db"
	settings.Ingest.Workers = -1

	assert.Error(t, ValidateSettings(settings))
}

func TestEmbeddedDefaultConfig(t *testing.T) {
	content := getDefaultConfig()
	require.NotEmpty(t, content)
	assert.Contains(t, content, "output:")
	assert.Contains(t, content, "ingest:")
}

func TestSaveSettingsWritesActiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(getDefaultConfig()), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	settings := &Settings{}
	settings.Main.Name = "bench-node"
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "evidence.db"
	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	require.NoError(t, SaveSettings())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bench-node")
	assert.Contains(t, string(data), "evidence.db")
}

func TestSaveSettingsRequiresLoadedSettings(t *testing.T) {
	settingsMutex.Lock()
	settingsInstance = nil
	settingsMutex.Unlock()

	assert.Error(t, SaveSettings())
}
