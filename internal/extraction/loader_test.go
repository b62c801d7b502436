package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forenstiq/forenstiq-go/internal/categorize"
	"github.com/forenstiq/forenstiq-go/internal/errors"
)

func TestLoaderIngest(t *testing.T) {
	loader, caseID := createTestLoader(t)

	dir := t.TempDir()
	archive := filepath.Join(dir, "phone.zip")
	makeZip(t, archive, map[string]string{
		"DCIM/":                "",
		"DCIM/IMG_0001.jpg":    "jpeg bytes",
		"DCIM/VID_0001.mp4":    "mpeg bytes",
		"WhatsApp/msgstore.db": "sqlite bytes",
		"docs/invoice.pdf":     "pdf bytes",
	})

	var last int
	stats, err := loader.Ingest(context.Background(), archive, caseID, 2, func(current, total int, message string) {
		assert.GreaterOrEqual(t, current, last, "overall progress never goes backwards")
		assert.Equal(t, 100, total)
		last = current
	})
	require.NoError(t, err)

	assert.NotEmpty(t, stats.BatchID)
	assert.Equal(t, FormatZipArchive, stats.Format)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, stats.Total, stats.Processed+stats.Errors)
	assert.Equal(t, 1, stats.PerCategory[categorize.Image])
	assert.Equal(t, 1, stats.PerCategory[categorize.Video])
	assert.Equal(t, 1, stats.PerCategory[categorize.Messaging])
	assert.Equal(t, 1, stats.PerCategory[categorize.Document])
	assert.Equal(t, 100, last, "progress finishes at completion")

	files, err := loader.Store.GetFilesByCase(caseID, false)
	require.NoError(t, err)
	require.Len(t, files, 4)
	for i := range files {
		require.NotNil(t, files[i].SourceArchive)
		assert.Equal(t, archive, *files[i].SourceArchive)
		assert.Nil(t, files[i].FileHash)
	}

	got, err := loader.Store.GetCase(caseID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalFiles)

	// The batch landed in the audit trail.
	logs, err := loader.Store.GetCaseLogs(caseID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "import_extraction", logs[0].Action)
	assert.Equal(t, "tester", logs[0].UserName)
}

func TestLoaderIngestUnsupportedFormat(t *testing.T) {
	loader, caseID := createTestLoader(t)

	image := filepath.Join(t.TempDir(), "disk.dd")
	require.NoError(t, os.WriteFile(image, []byte("raw"), 0o644))

	_, err := loader.Ingest(context.Background(), image, caseID, 2, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))

	// Nothing was partially ingested.
	files, err := loader.Store.GetFilesByCase(caseID, false)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoaderIngestUnknownCase(t *testing.T) {
	loader, _ := createTestLoader(t)

	archive := filepath.Join(t.TempDir(), "phone.zip")
	makeZip(t, archive, map[string]string{"a.txt": "a"})

	_, err := loader.Ingest(context.Background(), archive, 9999, 2, nil)
	assert.True(t, errors.Is(err, errors.ErrCaseNotFound))
}

func TestLoaderScanDirectory(t *testing.T) {
	loader, caseID := createTestLoader(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "DCIM"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "DCIM", "IMG_0001.jpg"), []byte("jpeg bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hello"), 0o644))

	stats, err := loader.ScanDirectory(context.Background(), root, caseID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 0, stats.Errors)

	files, err := loader.Store.GetFilesByCase(caseID, false)
	require.NoError(t, err)
	require.Len(t, files, 2)

	for i := range files {
		require.NotNil(t, files[i].FileHash, "directory imports hash eagerly")
		require.NotNil(t, files[i].FileRelativePath)
		if files[i].FileName == "IMG_0001.jpg" {
			assert.Equal(t, filepath.Join("DCIM", "IMG_0001.jpg"), *files[i].FileRelativePath)
		}
	}
}

func TestLoaderIngestWithExtraction(t *testing.T) {
	loader, caseID := createTestLoader(t)

	dir := t.TempDir()
	archive := filepath.Join(dir, "phone.zip")
	makeZip(t, archive, map[string]string{
		"DCIM/IMG_0001.jpg": "jpeg bytes",
		"notes/readme.txt":  "hello",
	})

	target := filepath.Join(dir, "extracted")
	stats, err := loader.IngestWithExtraction(context.Background(), archive, caseID, target, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatZipArchive, stats.Format)
	assert.Equal(t, 2, stats.Processed)

	// The files are really on disk.
	content, err := os.ReadFile(filepath.Join(target, "DCIM", "IMG_0001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))
}

func TestBackfillHashes(t *testing.T) {
	loader, caseID := createTestLoader(t)

	dir := t.TempDir()
	archive := filepath.Join(dir, "phone.zip")
	content := "jpeg bytes"
	makeZip(t, archive, map[string]string{"DCIM/IMG_0001.jpg": content})

	_, err := loader.Ingest(context.Background(), archive, caseID, 1, nil)
	require.NoError(t, err)

	stats, err := loader.BackfillHashes(context.Background(), caseID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Errors)

	files, err := loader.Store.GetFilesByCase(caseID, false)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NotNil(t, files[0].FileHash)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), *files[0].FileHash)

	// A second run finds nothing left to hash.
	stats, err = loader.BackfillHashes(context.Background(), caseID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestLoaderIngestCancellationReturnsPartialStats(t *testing.T) {
	defer verifyNoLeaks(t)

	loader, caseID := createTestLoader(t)

	entries := make(map[string]string, 300)
	for i := 0; i < 300; i++ {
		entries[fmt.Sprintf("DCIM/IMG_%04d.jpg", i)] = "jpeg bytes"
	}
	archive := filepath.Join(t.TempDir(), "phone.zip")
	makeZip(t, archive, entries)

	// Cancel as soon as the batch enters the processing phase; indexing
	// reports below 30, processing from 30 upward.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stats, err := loader.Ingest(ctx, archive, caseID, 2, func(current, total int, message string) {
		if current > 30 {
			cancel()
		}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// The interrupted batch still reports what it managed to persist.
	require.NotNil(t, stats)
	assert.Equal(t, 300, stats.Total)
	assert.LessOrEqual(t, stats.Processed+stats.Errors, stats.Total)

	files, err := loader.Store.GetFilesByCase(caseID, false)
	require.NoError(t, err)
	assert.Len(t, files, stats.Processed)

	// The recount still ran after the pool drained.
	got, err := loader.Store.GetCase(caseID)
	require.NoError(t, err)
	assert.Equal(t, stats.Processed, got.TotalFiles)
}

func TestLoaderIngestLargeArchive(t *testing.T) {
	defer verifyNoLeaks(t)

	loader, caseID := createTestLoader(t)

	const total = 1000
	entries := make(map[string]string, total)
	for i := 0; i < total; i++ {
		entries[fmt.Sprintf("dump/files/doc_%04d.pdf", i)] = "pdf bytes"
	}
	archive := filepath.Join(t.TempDir(), "export.zip")
	makeZip(t, archive, entries)

	stats, err := loader.Ingest(context.Background(), archive, caseID, 4, nil)
	require.NoError(t, err)

	assert.Equal(t, total, stats.Total)
	assert.Equal(t, total, stats.Processed+stats.Errors)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, total, stats.PerCategory[categorize.Document])

	got, err := loader.Store.GetCase(caseID)
	require.NoError(t, err)
	assert.Equal(t, total, got.TotalFiles)
}
