// search.go implements SQL-side evidence file filtering
package datastore

import (
	"time"

	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// FileFilters narrows a case's evidence files inside the database before
// any in-memory criterion evaluation. Nil and zero fields are ignored.
type FileFilters struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	FileType    string
	FlaggedOnly bool
	HasFaces    bool
	TextSearch  string // substring match against extracted text
	TagSearch   string // substring match against the tag list
}

// SearchFiles returns the case's files matching every set filter, newest
// capture date first.
func (ds *DataStore) SearchFiles(caseID uint, filters *FileFilters) ([]EvidenceFile, error) {
	if ds.DB == nil {
		return nil, errors.New(errors.ErrStoreNotInitialized).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	query := ds.DB.Where("case_id = ?", caseID)
	if filters != nil {
		if filters.DateFrom != nil {
			query = query.Where("date_taken >= ?", *filters.DateFrom)
		}
		if filters.DateTo != nil {
			query = query.Where("date_taken <= ?", *filters.DateTo)
		}
		if filters.FileType != "" {
			query = query.Where("file_type = ?", filters.FileType)
		}
		if filters.FlaggedOnly {
			query = query.Where("is_flagged = ?", true)
		}
		if filters.HasFaces {
			query = query.Where("face_count > 0")
		}
		if filters.TextSearch != "" {
			query = query.Where("ocr_text LIKE ?", "%"+filters.TextSearch+"%")
		}
		if filters.TagSearch != "" {
			query = query.Where("ai_tags LIKE ?", "%"+filters.TagSearch+"%")
		}
	}

	var files []EvidenceFile
	if err := query.Order(captureDateOrder).Find(&files).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_files").
			Context("case_id", caseID).
			Build()
	}
	return files, nil
}
