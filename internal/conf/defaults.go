// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Forenstiq")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "forenstiq.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("ingest.workers", 0)
	viper.SetDefault("ingest.maxworkers", 8)
	viper.SetDefault("ingest.insertretries", 1)
	viper.SetDefault("ingest.retrybackoff", 100*time.Millisecond)
	viper.SetDefault("ingest.tempdir", "")

	viper.SetDefault("analysis.actor", "System")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "forenstiq_cases.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "forenstiq")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "forenstiq")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
