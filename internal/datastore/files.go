package datastore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/forenstiq/forenstiq-go/internal/errors"
	"gorm.io/gorm"
)

// captureDateOrder sorts by capture date descending with nulls last, the
// display order investigators expect.
const captureDateOrder = "date_taken IS NULL, date_taken DESC"

// AddFile inserts one evidence file row. It fails with ErrForeignKeyViolation
// when the owning case does not exist, and retries a bounded number of times
// on transient lock contention so concurrent pool workers do not fail each
// other's inserts.
func (ds *DataStore) AddFile(f *EvidenceFile) error {
	if ds.DB == nil {
		return errors.New(errors.ErrStoreNotInitialized).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = ds.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(f).Error
		})
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= ds.InsertRetries {
			break
		}
		ds.logger().Debug("retrying contended insert",
			"file_name", f.FileName,
			"attempt", attempt+1)
		time.Sleep(ds.RetryBackoff)
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return errors.New(errors.ErrForeignKeyViolation).
			Component("datastore").
			Category(errors.CategoryForeignKey).
			Context("case_id", f.CaseID).
			Build()
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", "add-file").
		Context("file_name", f.FileName).
		Build()
}

// isTransient reports whether an insert failure is worth retrying.
// Constraint violations are deterministic and never retried.
func isTransient(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "deadlock")
}

// GetFile retrieves a single evidence file by ID.
func (ds *DataStore) GetFile(id uint) (EvidenceFile, error) {
	var f EvidenceFile
	if err := ds.DB.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EvidenceFile{}, errors.New(errors.ErrFileNotFound).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("file_id", id).
				Build()
		}
		return EvidenceFile{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return f, nil
}

// GetFilesByCase returns a case's files ordered by capture date descending,
// nulls last. With flaggedOnly set, only flagged files are returned.
func (ds *DataStore) GetFilesByCase(caseID uint, flaggedOnly bool) ([]EvidenceFile, error) {
	var files []EvidenceFile
	query := ds.DB.Where("case_id = ?", caseID)
	if flaggedOnly {
		query = query.Where("is_flagged = ?", true)
	}
	if err := query.Order(captureDateOrder).Find(&files).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-files-by-case").
			Build()
	}
	return files, nil
}

// GetFilesByCaseAndTypes returns a case's files restricted to the given
// category subset, pre-filtering on the SQL side. An empty subset returns
// all files.
func (ds *DataStore) GetFilesByCaseAndTypes(caseID uint, fileTypes []string) ([]EvidenceFile, error) {
	if len(fileTypes) == 0 {
		return ds.GetFilesByCase(caseID, false)
	}
	var files []EvidenceFile
	err := ds.DB.Where("case_id = ? AND file_type IN ?", caseID, fileTypes).
		Order(captureDateOrder).
		Find(&files).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-files-by-case-and-types").
			Build()
	}
	return files, nil
}

// UpdateAnalysis stores the analysis collaborator's result for a file and
// marks it processed. The operation is idempotent: re-running an analysis
// simply overwrites the previous result.
func (ds *DataStore) UpdateAnalysis(fileID uint, result *AnalysisResult) error {
	tags, err := json.Marshal(result.Tags)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("operation", "marshal-tags").
			Build()
	}
	tagsJSON := string(tags)
	now := time.Now()

	return ds.updateFile(fileID, map[string]any{
		"ai_processed":  true,
		"ai_tags":       tagsJSON,
		"ai_confidence": result.Confidence,
		"ocr_text":      result.OCRText,
		"face_count":    result.FaceCount,
		"analyzed_date": now,
	}, "update-analysis")
}

// FlagFile marks a file as evidence with the given reason. Flag state and
// reason always change together.
func (ds *DataStore) FlagFile(fileID uint, reason string) error {
	return ds.updateFile(fileID, map[string]any{
		"is_flagged":  true,
		"flag_reason": reason,
	}, "flag-file")
}

// UnflagFile removes the evidence flag and clears the reason atomically.
func (ds *DataStore) UnflagFile(fileID uint) error {
	return ds.updateFile(fileID, map[string]any{
		"is_flagged":  false,
		"flag_reason": nil,
	}, "unflag-file")
}

// AddAnalystNote attaches a free-text analyst note to a file.
func (ds *DataStore) AddAnalystNote(fileID uint, note string) error {
	return ds.updateFile(fileID, map[string]any{
		"analyst_notes": note,
	}, "add-analyst-note")
}

// GetUnprocessedFiles returns the analysis work queue for a case: files not
// yet processed by the collaborator, in ascending import order.
func (ds *DataStore) GetUnprocessedFiles(caseID uint) ([]EvidenceFile, error) {
	var files []EvidenceFile
	err := ds.DB.Where("case_id = ? AND ai_processed = ?", caseID, false).
		Order("imported_date ASC, file_id ASC").
		Find(&files).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-unprocessed-files").
			Build()
	}
	return files, nil
}

// GetUnprocessedCount returns the number of files awaiting analysis.
func (ds *DataStore) GetUnprocessedCount(caseID uint) (int64, error) {
	var count int64
	err := ds.DB.Model(&EvidenceFile{}).
		Where("case_id = ? AND ai_processed = ?", caseID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-unprocessed-count").
			Build()
	}
	return count, nil
}

// GetFilesMissingHash returns the lazy hash backfill queue for a case.
func (ds *DataStore) GetFilesMissingHash(caseID uint) ([]EvidenceFile, error) {
	var files []EvidenceFile
	err := ds.DB.Where("case_id = ? AND file_hash IS NULL", caseID).
		Order("file_id ASC").
		Find(&files).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-files-missing-hash").
			Build()
	}
	return files, nil
}

// SetFileHash records a computed content digest for a file.
func (ds *DataStore) SetFileHash(fileID uint, hash string) error {
	return ds.updateFile(fileID, map[string]any{
		"file_hash": hash,
	}, "set-file-hash")
}

// updateFile applies a field map to one file row in its own transaction,
// failing with ErrFileNotFound when the row does not exist.
func (ds *DataStore) updateFile(fileID uint, fields map[string]any, operation string) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&EvidenceFile{}).Where("file_id = ?", fileID).Updates(fields)
		if result.Error != nil {
			return errors.New(result.Error).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", operation).
				Build()
		}
		if result.RowsAffected == 0 {
			// MySQL reports zero affected rows for no-op updates, so
			// distinguish a missing row from an identical one.
			var count int64
			if err := tx.Model(&EvidenceFile{}).Where("file_id = ?", fileID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errors.New(errors.ErrFileNotFound).
					Component("datastore").
					Category(errors.CategoryNotFound).
					Context("file_id", fileID).
					Build()
			}
		}
		return nil
	})
}
