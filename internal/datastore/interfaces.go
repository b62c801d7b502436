// interfaces.go defines the interface for the case store operations
package datastore

import (
	"log/slog"
	"time"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations of the case store. All mutating operations run in their own
// transaction: they commit on success and roll back entirely on failure.
// Implementations must tolerate concurrent invocation from the ingestion
// worker pool.
type Interface interface {
	Open() error
	Close() error

	// Cases
	CreateCase(c *Case) error
	GetCase(id uint) (Case, error)
	GetCaseByNumber(number string) (Case, error)
	GetAllCases(status string) ([]Case, error)
	UpdateCase(id uint, update *CaseUpdate) error
	RecountCaseStatistics(id uint) error
	CaseStatistics(id uint) (CaseStats, error)

	// Evidence files
	AddFile(f *EvidenceFile) error
	GetFile(id uint) (EvidenceFile, error)
	GetFilesByCase(caseID uint, flaggedOnly bool) ([]EvidenceFile, error)
	GetFilesByCaseAndTypes(caseID uint, fileTypes []string) ([]EvidenceFile, error)
	SearchFiles(caseID uint, filters *FileFilters) ([]EvidenceFile, error)
	UpdateAnalysis(fileID uint, result *AnalysisResult) error
	FlagFile(fileID uint, reason string) error
	UnflagFile(fileID uint) error
	AddAnalystNote(fileID uint, note string) error
	GetUnprocessedFiles(caseID uint) ([]EvidenceFile, error)
	GetUnprocessedCount(caseID uint) (int64, error)
	GetFilesMissingHash(caseID uint) ([]EvidenceFile, error)
	SetFileHash(fileID uint, hash string) error

	// Audit trail
	LogAction(caseID *uint, userName, action string, details any) error
	GetCaseLogs(caseID uint, limit int) ([]AuditLog, error)
	GetAllLogs(limit int) ([]AuditLog, error)
	GetLogsByAction(action string, limit int) ([]AuditLog, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB            *gorm.DB // GORM database instance
	InsertRetries int
	RetryBackoff  time.Duration
	Logger        *slog.Logger
	closeLogger   func() error // closes the file-backed logger, if any
}

// New creates a new store instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	storeLogger, closeLogger := newStoreLogger(&settings.Main.Log, storeLogPath)
	base := DataStore{
		InsertRetries: settings.Ingest.InsertRetries,
		RetryBackoff:  settings.Ingest.RetryBackoff,
		Logger:        storeLogger,
		closeLogger:   closeLogger,
	}
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			DataStore: base,
			Settings:  settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			DataStore: base,
			Settings:  settings,
		}
	default:
		return nil
	}
}

// logger returns the store's logger, falling back to slog.Default so the
// store stays usable in tests that skip logging.Init.
func (ds *DataStore) logger() *slog.Logger {
	if ds.Logger == nil {
		return slog.Default()
	}
	return ds.Logger
}

// closeStoreLogger closes the file-backed logger if one was opened.
func (ds *DataStore) closeStoreLogger() error {
	if ds.closeLogger == nil {
		return nil
	}
	return ds.closeLogger()
}
