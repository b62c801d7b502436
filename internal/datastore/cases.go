package datastore

import (
	"time"

	"github.com/forenstiq/forenstiq-go/internal/errors"
	"gorm.io/gorm"
)

// CreateCase inserts a new case. The case number must be unique; a second
// case with the same number fails with ErrDuplicateCaseNumber and leaves the
// first case untouched.
func (ds *DataStore) CreateCase(c *Case) error {
	if ds.DB == nil {
		return errors.New(errors.ErrStoreNotInitialized).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if c.Status == "" {
		c.Status = StatusOpen
	}
	c.LastModified = time.Now()

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.New(errors.ErrDuplicateCaseNumber).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("case_number", c.CaseNumber).
				Build()
		}
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "create-case").
			Build()
	}
	return nil
}

// GetCase retrieves a case by its ID.
func (ds *DataStore) GetCase(id uint) (Case, error) {
	var c Case
	if err := ds.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Case{}, errors.New(errors.ErrCaseNotFound).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("case_id", id).
				Build()
		}
		return Case{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return c, nil
}

// GetCaseByNumber retrieves a case by its unique case number.
func (ds *DataStore) GetCaseByNumber(number string) (Case, error) {
	var c Case
	if err := ds.DB.Where("case_number = ?", number).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Case{}, errors.New(errors.ErrCaseNotFound).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("case_number", number).
				Build()
		}
		return Case{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return c, nil
}

// GetAllCases returns all cases ordered by last modification, optionally
// filtered by status.
func (ds *DataStore) GetAllCases(status string) ([]Case, error) {
	var cases []Case
	query := ds.DB.Order("last_modified DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&cases).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-all-cases").
			Build()
	}
	return cases, nil
}

// UpdateCase applies the non-nil fields of update to the case and bumps
// last_modified. The whole update commits or rolls back as a unit.
func (ds *DataStore) UpdateCase(id uint, update *CaseUpdate) error {
	fields := map[string]any{}
	if update.CaseName != nil {
		fields["case_name"] = *update.CaseName
	}
	if update.InvestigatorName != nil {
		fields["investigator_name"] = *update.InvestigatorName
	}
	if update.AgencyName != nil {
		fields["agency_name"] = *update.AgencyName
	}
	if update.IncidentDate != nil {
		fields["incident_date"] = *update.IncidentDate
	}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}
	if update.EvidenceSourcePath != nil {
		fields["evidence_source_path"] = *update.EvidenceSourcePath
	}
	if len(fields) == 0 {
		return nil
	}
	fields["last_modified"] = time.Now()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Case{}).Where("case_id = ?", id).Updates(fields)
		if result.Error != nil {
			return errors.New(result.Error).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "update-case").
				Build()
		}
		if result.RowsAffected == 0 {
			return errors.New(errors.ErrCaseNotFound).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("case_id", id).
				Build()
		}
		return nil
	})
}

// RecountCaseStatistics recomputes the denormalized total_files and
// total_flagged counters from the evidence file table. The recount is
// idempotent: calling it twice without intervening writes yields identical
// counts.
func (ds *DataStore) RecountCaseStatistics(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var totalFiles, totalFlagged int64
		if err := tx.Model(&EvidenceFile{}).Where("case_id = ?", id).Count(&totalFiles).Error; err != nil {
			return err
		}
		if err := tx.Model(&EvidenceFile{}).Where("case_id = ? AND is_flagged = ?", id, true).Count(&totalFlagged).Error; err != nil {
			return err
		}

		result := tx.Model(&Case{}).Where("case_id = ?", id).Updates(map[string]any{
			"total_files":   totalFiles,
			"total_flagged": totalFlagged,
			"last_modified": time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New(errors.ErrCaseNotFound).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("case_id", id).
				Build()
		}
		return nil
	})
}

// CaseStatistics aggregates per-case counts straight from the file table.
func (ds *DataStore) CaseStatistics(id uint) (CaseStats, error) {
	var stats CaseStats
	row := ds.DB.Model(&EvidenceFile{}).
		Select(`COUNT(*) as total_files,
			COALESCE(SUM(CASE WHEN ai_processed THEN 1 ELSE 0 END), 0) as processed_files,
			COALESCE(SUM(CASE WHEN is_flagged THEN 1 ELSE 0 END), 0) as flagged_files,
			COALESCE(SUM(CASE WHEN face_count > 0 THEN 1 ELSE 0 END), 0) as files_with_faces,
			COALESCE(SUM(face_count), 0) as total_faces,
			COUNT(DISTINCT date_taken) as unique_dates`).
		Where("case_id = ?", id).
		Row()
	if err := row.Scan(&stats.TotalFiles, &stats.ProcessedFiles, &stats.FlaggedFiles,
		&stats.FilesWithFaces, &stats.TotalFaces, &stats.UniqueDates); err != nil {
		return CaseStats{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "case-statistics").
			Build()
	}
	return stats, nil
}
