package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// performAutoMigration runs GORM automigration for the case store tables.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string, logger *slog.Logger) error {
	migrationStart := time.Now()

	if debug {
		logger.Debug("Starting database migration",
			"db_type", dbType,
			"connection", connectionInfo)
	}

	if err := db.AutoMigrate(&Case{}, &EvidenceFile{}, &AuditLog{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		logger.Debug("Database migration completed",
			"db_type", dbType,
			"duration", time.Since(migrationStart))
	}

	return nil
}
