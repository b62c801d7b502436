package datastore

import (
	"fmt"
	"path/filepath"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return fmt.Errorf("sqlite database path is empty")
	}
	return nil
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	// Foreign keys are off by default in SQLite; the evidence_files.case_id
	// constraint depends on them.
	dsn := absoluteFilePath + "?_foreign_keys=on&_busy_timeout=5000"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         createGormLogger(store.logger()),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", absoluteFilePath, store.logger())
}

// Close releases the underlying SQLite connection pool.
func (store *SQLiteStore) Close() error {
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
