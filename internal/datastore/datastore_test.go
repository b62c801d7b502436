package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// createDatabase initializes a temporary SQLite-backed store for testing.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"
	settings.Ingest.InsertRetries = 1
	settings.Ingest.RetryBackoff = time.Millisecond

	store := New(settings)
	require.NoError(t, store.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close datastore")
	})

	return store
}

func createTestCase(t *testing.T, store Interface, number string) uint {
	t.Helper()
	c := &Case{
		CaseNumber:       number,
		CaseName:         "Test Investigation",
		InvestigatorName: "D. Moreau",
		AgencyName:       "Cybercrime Unit",
	}
	require.NoError(t, store.CreateCase(c))
	return c.ID
}

func strPtr(s string) *string       { return &s }
func timePtr(v time.Time) *time.Time { return &v }

func TestCreateCaseDuplicateNumber(t *testing.T) {
	store := createDatabase(t)

	first := &Case{CaseNumber: "FR-2026-001", CaseName: "First"}
	require.NoError(t, store.CreateCase(first))

	second := &Case{CaseNumber: "FR-2026-001", CaseName: "Second"}
	err := store.CreateCase(second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateCaseNumber))

	// The first case must be unaffected.
	got, err := store.GetCaseByNumber("FR-2026-001")
	require.NoError(t, err)
	assert.Equal(t, "First", got.CaseName)
	assert.Equal(t, StatusOpen, got.Status)
}

func TestAddFileToMissingCase(t *testing.T) {
	store := createDatabase(t)

	err := store.AddFile(&EvidenceFile{
		CaseID:   9999,
		FilePath: "/evidence/a.jpg",
		FileName: "a.jpg",
		FileType: "image",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForeignKeyViolation))
}

func TestGetFilesByCaseOrdering(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-002")

	older := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.AddFile(&EvidenceFile{CaseID: caseID, FileName: "no-date.txt", FileType: "document"}))
	require.NoError(t, store.AddFile(&EvidenceFile{CaseID: caseID, FileName: "older.jpg", FileType: "image", DateTaken: timePtr(older)}))
	require.NoError(t, store.AddFile(&EvidenceFile{CaseID: caseID, FileName: "newer.jpg", FileType: "image", DateTaken: timePtr(newer)}))

	files, err := store.GetFilesByCase(caseID, false)
	require.NoError(t, err)
	require.Len(t, files, 3)

	// Capture date descending, nulls last.
	assert.Equal(t, "newer.jpg", files[0].FileName)
	assert.Equal(t, "older.jpg", files[1].FileName)
	assert.Equal(t, "no-date.txt", files[2].FileName)
}

func TestFlagUnflagAtomic(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-003")

	f := &EvidenceFile{CaseID: caseID, FileName: "susp.jpg", FileType: "image"}
	require.NoError(t, store.AddFile(f))

	require.NoError(t, store.FlagFile(f.ID, "matches suspect vehicle"))
	got, err := store.GetFile(f.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFlagged)
	require.NotNil(t, got.FlagReason)
	assert.Equal(t, "matches suspect vehicle", *got.FlagReason)

	require.NoError(t, store.RecountCaseStatistics(caseID))
	c, err := store.GetCase(caseID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalFlagged)

	require.NoError(t, store.UnflagFile(f.ID))
	got, err = store.GetFile(f.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFlagged)
	assert.Nil(t, got.FlagReason)

	require.NoError(t, store.RecountCaseStatistics(caseID))
	c, err = store.GetCase(caseID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.TotalFlagged)
	assert.Equal(t, 1, c.TotalFiles)
}

func TestRecountIsIdempotent(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-004")

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AddFile(&EvidenceFile{CaseID: caseID, FileName: "f.bin", FileType: "other"}))
	}

	require.NoError(t, store.RecountCaseStatistics(caseID))
	first, err := store.GetCase(caseID)
	require.NoError(t, err)

	require.NoError(t, store.RecountCaseStatistics(caseID))
	second, err := store.GetCase(caseID)
	require.NoError(t, err)

	assert.Equal(t, first.TotalFiles, second.TotalFiles)
	assert.Equal(t, first.TotalFlagged, second.TotalFlagged)
	assert.Equal(t, 3, second.TotalFiles)
}

func TestUpdateAnalysisIdempotent(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-005")

	f := &EvidenceFile{CaseID: caseID, FileName: "doc.pdf", FileType: "document"}
	require.NoError(t, store.AddFile(f))

	result := &AnalysisResult{
		Tags:       []string{"invoice", "bank"},
		Confidence: 0.92,
		OCRText:    "invoice number 42",
		FaceCount:  0,
	}
	require.NoError(t, store.UpdateAnalysis(f.ID, result))
	require.NoError(t, store.UpdateAnalysis(f.ID, result))

	got, err := store.GetFile(f.ID)
	require.NoError(t, err)
	assert.True(t, got.AIProcessed)
	require.NotNil(t, got.AITags)
	assert.JSONEq(t, `["invoice","bank"]`, *got.AITags)
	require.NotNil(t, got.OCRText)
	assert.Equal(t, "invoice number 42", *got.OCRText)

	// Analysis queue no longer contains the file.
	queue, err := store.GetUnprocessedFiles(caseID)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestUnprocessedQueueOrder(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-006")

	names := []string{"first.jpg", "second.jpg", "third.jpg"}
	for _, name := range names {
		require.NoError(t, store.AddFile(&EvidenceFile{CaseID: caseID, FileName: name, FileType: "image"}))
	}

	queue, err := store.GetUnprocessedFiles(caseID)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	for i, name := range names {
		assert.Equal(t, name, queue[i].FileName)
	}

	count, err := store.GetUnprocessedCount(caseID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestHashBackfillQueue(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-007")

	hashed := &EvidenceFile{CaseID: caseID, FileName: "hashed.bin", FileType: "other", FileHash: strPtr("abc123")}
	pending := &EvidenceFile{CaseID: caseID, FileName: "pending.bin", FileType: "other"}
	require.NoError(t, store.AddFile(hashed))
	require.NoError(t, store.AddFile(pending))

	queue, err := store.GetFilesMissingHash(caseID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "pending.bin", queue[0].FileName)

	require.NoError(t, store.SetFileHash(pending.ID, "deadbeef"))
	queue, err = store.GetFilesMissingHash(caseID)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestUpdateCasePartial(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-008")

	before, err := store.GetCase(caseID)
	require.NoError(t, err)

	closed := StatusClosed
	require.NoError(t, store.UpdateCase(caseID, &CaseUpdate{Status: &closed}))

	after, err := store.GetCase(caseID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, after.Status)
	assert.Equal(t, before.CaseName, after.CaseName, "unset fields must be untouched")
	assert.False(t, after.LastModified.Before(before.LastModified))

	err = store.UpdateCase(9999, &CaseUpdate{Status: &closed})
	assert.True(t, errors.Is(err, errors.ErrCaseNotFound))
}

func TestCaseStatistics(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-009")

	f := &EvidenceFile{CaseID: caseID, FileName: "group.jpg", FileType: "image"}
	require.NoError(t, store.AddFile(f))
	require.NoError(t, store.UpdateAnalysis(f.ID, &AnalysisResult{FaceCount: 3, Confidence: 0.8}))
	require.NoError(t, store.FlagFile(f.ID, "group photo"))
	require.NoError(t, store.AddFile(&EvidenceFile{CaseID: caseID, FileName: "note.txt", FileType: "document"}))

	stats, err := store.CaseStatistics(caseID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalFiles)
	assert.Equal(t, int64(1), stats.ProcessedFiles)
	assert.Equal(t, int64(1), stats.FlaggedFiles)
	assert.Equal(t, int64(1), stats.FilesWithFaces)
	assert.Equal(t, int64(3), stats.TotalFaces)
}

func TestAuditTrail(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-010")

	require.NoError(t, store.LogAction(&caseID, "analyst", "import_extraction", map[string]any{"total": 42}))
	require.NoError(t, store.LogAction(nil, "System", "startup", nil))

	caseLogs, err := store.GetCaseLogs(caseID, 10)
	require.NoError(t, err)
	require.Len(t, caseLogs, 1)
	assert.Equal(t, "import_extraction", caseLogs[0].Action)
	require.NotNil(t, caseLogs[0].Details)
	assert.JSONEq(t, `{"total":42}`, *caseLogs[0].Details)

	allLogs, err := store.GetAllLogs(0)
	require.NoError(t, err)
	assert.Len(t, allLogs, 2)

	byAction, err := store.GetLogsByAction("startup", 10)
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Nil(t, byAction[0].CaseID)
}

func TestSearchFilesFilters(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-012")

	march := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	photo := &EvidenceFile{CaseID: caseID, FileName: "group.jpg", FileType: "image", DateTaken: timePtr(june)}
	require.NoError(t, store.AddFile(photo))
	require.NoError(t, store.UpdateAnalysis(photo.ID, &AnalysisResult{
		Tags: []string{"person", "vehicle"}, FaceCount: 2, OCRText: "license plate KA01",
	}))

	doc := &EvidenceFile{CaseID: caseID, FileName: "invoice.pdf", FileType: "document", DateTaken: timePtr(march)}
	require.NoError(t, store.AddFile(doc))
	require.NoError(t, store.UpdateAnalysis(doc.ID, &AnalysisResult{OCRText: "invoice total 500"}))

	// No filters returns everything, newest capture first.
	all, err := store.SearchFiles(caseID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "group.jpg", all[0].FileName)

	byType, err := store.SearchFiles(caseID, &FileFilters{FileType: "document"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "invoice.pdf", byType[0].FileName)

	byDate, err := store.SearchFiles(caseID, &FileFilters{DateFrom: timePtr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "group.jpg", byDate[0].FileName)

	withFaces, err := store.SearchFiles(caseID, &FileFilters{HasFaces: true})
	require.NoError(t, err)
	require.Len(t, withFaces, 1)

	byText, err := store.SearchFiles(caseID, &FileFilters{TextSearch: "invoice"})
	require.NoError(t, err)
	require.Len(t, byText, 1)

	byTag, err := store.SearchFiles(caseID, &FileFilters{TagSearch: "vehicle"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "group.jpg", byTag[0].FileName)
}

func TestAnalystNote(t *testing.T) {
	store := createDatabase(t)
	caseID := createTestCase(t, store, "FR-2026-011")

	f := &EvidenceFile{CaseID: caseID, FileName: "x.jpg", FileType: "image"}
	require.NoError(t, store.AddFile(f))
	require.NoError(t, store.AddAnalystNote(f.ID, "check EXIF against alibi"))

	got, err := store.GetFile(f.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AnalystNotes)
	assert.Equal(t, "check EXIF against alibi", *got.AnalystNotes)
}

func TestStoreFileLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "datastore.log")
	logConf := &conf.LogConfig{
		Enabled:  true,
		Path:     logPath,
		Rotation: conf.RotationSize,
		MaxSize:  1024 * 1024,
	}

	logger, closeFn := newStoreLogger(logConf, logPath)
	require.NotNil(t, logger)
	logger.Info("query log sink check")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "query log sink check")
	assert.Contains(t, string(data), `"service":"datastore"`)

	// With file logging disabled the store falls back to the shared logger.
	fallback, closeFallback := newStoreLogger(&conf.LogConfig{}, logPath)
	require.NotNil(t, fallback)
	assert.NoError(t, closeFallback())
}
