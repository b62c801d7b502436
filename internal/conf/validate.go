// conf/validate.go validation of loaded settings
package conf

import (
	"fmt"
	"time"
)

// ValidateSettings checks the loaded settings for invalid combinations and
// out-of-range values, normalizing where a safe correction exists.
func ValidateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return fmt.Errorf("only one case store may be enabled, both sqlite and mysql are set")
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return fmt.Errorf("no case store enabled, enable output.sqlite or output.mysql")
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must not be empty")
	}

	if settings.Ingest.Workers < 0 {
		return fmt.Errorf("ingest.workers must not be negative, got %d", settings.Ingest.Workers)
	}
	if settings.Ingest.MaxWorkers <= 0 {
		settings.Ingest.MaxWorkers = 8
	}
	if settings.Ingest.InsertRetries < 0 {
		settings.Ingest.InsertRetries = 0
	}
	if settings.Ingest.RetryBackoff <= 0 {
		settings.Ingest.RetryBackoff = 100 * time.Millisecond
	}

	if settings.Analysis.Actor == "" {
		settings.Analysis.Actor = "System"
	}

	return nil
}
