package datastore

import (
	"encoding/json"

	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// LogAction appends one entry to the audit trail. Entries are append-only;
// nothing in the store ever updates or deletes them. caseID is nil for
// system-wide actions, details may be any JSON-serializable payload.
func (ds *DataStore) LogAction(caseID *uint, userName, action string, details any) error {
	entry := AuditLog{
		CaseID:   caseID,
		UserName: userName,
		Action:   action,
	}
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryValidation).
				Context("operation", "marshal-audit-details").
				Build()
		}
		detailsJSON := string(payload)
		entry.Details = &detailsJSON
	}

	if err := ds.DB.Create(&entry).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "log-action").
			Context("action", action).
			Build()
	}
	return nil
}

// GetCaseLogs returns the newest audit entries for a case, limited to limit.
func (ds *DataStore) GetCaseLogs(caseID uint, limit int) ([]AuditLog, error) {
	var logs []AuditLog
	err := ds.DB.Where("case_id = ?", caseID).
		Order("timestamp DESC").
		Limit(normalizeLimit(limit, 100)).
		Find(&logs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-case-logs").
			Build()
	}
	return logs, nil
}

// GetAllLogs returns the newest audit entries across all cases.
func (ds *DataStore) GetAllLogs(limit int) ([]AuditLog, error) {
	var logs []AuditLog
	err := ds.DB.Order("timestamp DESC").
		Limit(normalizeLimit(limit, 1000)).
		Find(&logs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-all-logs").
			Build()
	}
	return logs, nil
}

// GetLogsByAction returns the newest audit entries for one action type.
func (ds *DataStore) GetLogsByAction(action string, limit int) ([]AuditLog, error) {
	var logs []AuditLog
	err := ds.DB.Where("action = ?", action).
		Order("timestamp DESC").
		Limit(normalizeLimit(limit, 100)).
		Find(&logs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-logs-by-action").
			Build()
	}
	return logs, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
