package datastore

import (
	"fmt"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	mysqlConf := &settings.Output.MySQL
	if mysqlConf.Host == "" || mysqlConf.Port == "" || mysqlConf.Database == "" {
		return fmt.Errorf("mysql host, port and database must all be set")
	}
	return nil
}

// Open sets up the MySQL database connection and runs migrations.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		store.Settings.Output.MySQL.Username, store.Settings.Output.MySQL.Password,
		store.Settings.Output.MySQL.Host, store.Settings.Output.MySQL.Port,
		store.Settings.Output.MySQL.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         createGormLogger(store.logger()),
		TranslateError: true,
	})
	if err != nil {
		store.logger().Error("Failed to open MySQL database",
			"host", store.Settings.Output.MySQL.Host,
			"port", store.Settings.Output.MySQL.Port,
			"database", store.Settings.Output.MySQL.Database,
			"error", err)
		return fmt.Errorf("failed to open MySQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL",
		store.Settings.Output.MySQL.Host, store.logger())
}

// Close releases the underlying MySQL connection pool.
func (store *MySQLStore) Close() error {
	defer store.closeStoreLogger() //nolint:errcheck // best effort on shutdown
	if store.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	return sqlDB.Close()
}
