// model.go defines the persisted data model for the case store
package datastore

import "time"

// Case statuses
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Case represents a single forensic investigation.
type Case struct {
	ID                 uint   `gorm:"column:case_id;primaryKey"`
	CaseNumber         string `gorm:"uniqueIndex;not null"`
	CaseName           string
	InvestigatorName   string
	AgencyName         string
	IncidentDate       *time.Time
	Status             string `gorm:"type:varchar(20);default:open"`
	Notes              string `gorm:"type:text"`
	EvidenceSourcePath string
	// Denormalized counters, maintained only by RecountCaseStatistics
	TotalFiles   int
	TotalFlagged int
	LastModified time.Time
	CreatedDate  time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default pluralized name to match the case schema.
func (Case) TableName() string { return "cases" }

// EvidenceFile represents one ingested item owned by exactly one case.
// FileHash is nil until backfilled lazily; IsFlagged and FlagReason are
// always set and cleared together.
type EvidenceFile struct {
	ID               uint `gorm:"column:file_id;primaryKey"`
	CaseID           uint `gorm:"index;not null"`
	FilePath         string
	FileRelativePath *string
	FileName         string `gorm:"index"`
	FileType         string `gorm:"index"` // forensic category, see internal/categorize
	FileSize         int64
	FileHash         *string
	SourceArchive    *string

	// Filesystem and camera metadata, all optional
	DateCreated  *time.Time
	DateModified *time.Time
	DateAccessed *time.Time
	DateTaken    *time.Time `gorm:"index"`
	GPSLatitude  *float64
	GPSLongitude *float64
	GPSAltitude  *float64
	CameraMake   *string
	CameraModel  *string

	// Analysis fields, populated only by the external analysis collaborator
	AIProcessed  bool `gorm:"column:ai_processed;default:false;index"`
	AITags       *string
	AIConfidence *float64
	OCRText      *string `gorm:"type:text"`
	FaceCount    int     `gorm:"default:0"`
	AnalyzedDate *time.Time

	IsFlagged    bool `gorm:"default:false;index"`
	FlagReason   *string
	AnalystNotes *string

	ImportedDate time.Time `gorm:"autoCreateTime;index"`
}

// TableName overrides the default pluralized name to match the case schema.
func (EvidenceFile) TableName() string { return "evidence_files" }

// AuditLog is one append-only audit trail entry. Entries are never updated
// or deleted; CaseID is nil for system-wide actions.
type AuditLog struct {
	ID        uint  `gorm:"column:log_id;primaryKey"`
	CaseID    *uint `gorm:"index"`
	UserName  string
	Action    string  `gorm:"index"`
	Details   *string // JSON payload
	Timestamp time.Time `gorm:"autoCreateTime;index"`
}

// TableName overrides the default pluralized name to match the case schema.
func (AuditLog) TableName() string { return "audit_log" }

// CaseUpdate carries the optional fields UpdateCase may change. Nil fields
// are left untouched.
type CaseUpdate struct {
	CaseName           *string
	InvestigatorName   *string
	AgencyName         *string
	IncidentDate       *time.Time
	Status             *string
	Notes              *string
	EvidenceSourcePath *string
}

// AnalysisResult is the structured outcome of the analysis collaborator
// for a single file.
type AnalysisResult struct {
	Tags       []string
	Confidence float64
	OCRText    string
	FaceCount  int
}

// CaseStats aggregates per-case counts derived from the evidence file table.
type CaseStats struct {
	TotalFiles     int64
	ProcessedFiles int64
	FlaggedFiles   int64
	FilesWithFaces int64
	TotalFaces     int64
	UniqueDates    int64
}
