package extraction

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/forenstiq/forenstiq-go/internal/categorize"
	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/logging"
	"github.com/forenstiq/forenstiq-go/internal/observability"
)

// IngestStats is the result of one ingestion batch. A non-zero Errors
// count does not make the call fail; callers must inspect both the stats
// and the returned error to know the true outcome.
type IngestStats struct {
	BatchID        string
	Format         Format
	Total          int
	Processed      int
	Errors         int
	PerCategory    map[categorize.Category]int
	ElapsedSeconds float64
	FilesPerSecond float64
}

// Loader is the ingestion entrypoint: detect the container format, build
// the streaming index, and fan it out into the case store.
type Loader struct {
	Store    datastore.Interface
	Settings *conf.Settings
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

func NewLoader(store datastore.Interface, settings *conf.Settings, metrics *observability.Metrics) *Loader {
	return &Loader{
		Store:    store,
		Settings: settings,
		Logger:   logging.ForService("extraction"),
		Metrics:  metrics,
	}
}

func (l *Loader) log() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return logging.ForService("extraction")
}

// Ingest indexes the archive at archivePath and persists one evidence
// file row per entry into the given case, hashing deferred. Only failures
// that prevent the batch from starting (unknown case, unsupported or
// unreadable container) are returned as errors; per-item failures are
// aggregated into the stats.
func (l *Loader) Ingest(ctx context.Context, archivePath string, caseID uint, workers int, progress ProgressFunc) (*IngestStats, error) {
	start := time.Now()
	batchID := uuid.New().String()

	if _, err := l.Store.GetCase(caseID); err != nil {
		return nil, err
	}

	indexer, format, err := NewIndexer(archivePath)
	if err != nil {
		return nil, err
	}
	l.log().Info("starting ingestion",
		"batch_id", batchID,
		"archive", filepath.Base(archivePath),
		"format", format,
		"case_id", caseID,
		"workers", workers)
	progress.report(0, 100, "Detected "+string(format)+" format")

	files, err := indexer.Index(ctx, func(current, total int, message string) {
		l.Metrics.RecordIndexed(string(format))
		progress.report(scale(current, total, 10, 30), 100, message)
	})
	if err != nil {
		return nil, err
	}

	processor := &Processor{
		Store:   l.Store,
		Workers: l.workerCount(workers),
		Logger:  l.Logger,
		Metrics: l.Metrics,
	}
	batch, procErr := processor.Process(ctx, files, caseID, func(current, total int, message string) {
		progress.report(scale(current, total, 30, 95), 100, message)
	})

	stats := &IngestStats{
		BatchID:        batchID,
		Format:         format,
		Total:          batch.Total,
		Processed:      batch.Processed,
		Errors:         batch.Errors,
		PerCategory:    batch.PerCategory,
		ElapsedSeconds: time.Since(start).Seconds(),
	}
	if stats.ElapsedSeconds > 0 {
		stats.FilesPerSecond = float64(stats.Total) / stats.ElapsedSeconds
	}
	l.Metrics.RecordIngestDuration(string(format), stats.ElapsedSeconds)

	// An interrupted batch still hands back what it managed to persist.
	if procErr != nil {
		l.log().Warn("ingestion interrupted",
			"batch_id", batchID,
			"processed", stats.Processed,
			"errors", stats.Errors,
			"error", procErr)
		return stats, procErr
	}

	l.audit(caseID, "import_extraction", map[string]any{
		"batch_id":  batchID,
		"archive":   archivePath,
		"format":    string(format),
		"total":     stats.Total,
		"processed": stats.Processed,
		"errors":    stats.Errors,
	})

	l.log().Info("ingestion complete",
		"batch_id", batchID,
		"total", stats.Total,
		"processed", stats.Processed,
		"errors", stats.Errors,
		"elapsed_seconds", stats.ElapsedSeconds)
	progress.report(100, 100, "Complete")
	return stats, nil
}

// IngestWithExtraction extracts the full archive content to targetDir
// (a fresh temp directory when empty) before importing, for cases that
// need the actual files on disk. Slower than Ingest, and hashes are
// computed eagerly during the directory scan.
func (l *Loader) IngestWithExtraction(ctx context.Context, archivePath string, caseID uint, targetDir string, progress ProgressFunc) (*IngestStats, error) {
	indexer, format, err := NewIndexer(archivePath)
	if err != nil {
		return nil, err
	}
	zipIdx, ok := indexer.(*zipIndexer)
	if !ok {
		return nil, newUnsupported(format, archivePath, "full extraction")
	}

	if targetDir == "" {
		dir := l.Settings.Ingest.TempDir
		targetDir, err = os.MkdirTemp(dir, "forenstiq_extract_")
		if err != nil {
			return nil, err
		}
	}
	l.log().Info("extracting archive to disk",
		"archive", filepath.Base(archivePath),
		"target", targetDir)

	if _, err := zipIdx.ExtractAll(ctx, targetDir, nil, func(current, total int, message string) {
		progress.report(scale(current, total, 0, 50), 100, message)
	}); err != nil {
		return nil, err
	}

	stats, err := l.ScanDirectory(ctx, targetDir, caseID, func(current, total int, message string) {
		progress.report(scale(current, total, 50, 100), 100, message)
	})
	if err != nil {
		return nil, err
	}
	stats.Format = format
	return stats, nil
}

// ScanDirectory walks an already extracted directory tree and imports
// every regular file. Files outside the scan root keep just their name
// as the relative path. Hashes are computed inline since the content is
// local and readable.
func (l *Loader) ScanDirectory(ctx context.Context, dir string, caseID uint, progress ProgressFunc) (*IngestStats, error) {
	start := time.Now()
	batchID := uuid.New().String()

	if _, err := l.Store.GetCase(caseID); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := &IngestStats{
		BatchID:     batchID,
		Total:       len(paths),
		PerCategory: make(map[categorize.Category]int),
	}

	for idx, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		progress.report(idx+1, stats.Total, filepath.Base(path))

		if err := l.importLocalFile(path, dir, caseID, stats); err != nil {
			l.log().Error("failed to import file",
				"file", path,
				"error", err)
			stats.Errors++
			l.Metrics.RecordError("scan")
		}
	}

	if err := l.Store.RecountCaseStatistics(caseID); err != nil {
		return stats, err
	}

	stats.ElapsedSeconds = time.Since(start).Seconds()
	if stats.ElapsedSeconds > 0 {
		stats.FilesPerSecond = float64(stats.Total) / stats.ElapsedSeconds
	}
	l.audit(caseID, "import_directory", map[string]any{
		"batch_id":  batchID,
		"directory": dir,
		"total":     stats.Total,
		"processed": stats.Processed,
		"errors":    stats.Errors,
	})
	return stats, nil
}

func (l *Loader) importLocalFile(path, root string, caseID uint, stats *IngestStats) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	relative, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(relative) {
		relative = filepath.Base(path)
	}

	category := categorize.ForPath(path)
	digest, err := hashLocalFile(path)
	if err != nil {
		return err
	}
	l.Metrics.RecordHashComputed()

	modified := info.ModTime()
	row := &datastore.EvidenceFile{
		CaseID:           caseID,
		FilePath:         path,
		FileRelativePath: &relative,
		FileName:         filepath.Base(path),
		FileType:         string(category),
		FileSize:         info.Size(),
		FileHash:         &digest,
		DateModified:     &modified,
	}
	if err := l.Store.AddFile(row); err != nil {
		return err
	}
	stats.Processed++
	stats.PerCategory[category]++
	l.Metrics.RecordProcessed(string(category))
	return nil
}

// workerCount clamps the requested pool size against the configured
// bounds. Zero falls back to the configured default, and a zero default
// selects one worker per CPU.
func (l *Loader) workerCount(requested int) int {
	workers := requested
	if workers <= 0 {
		workers = l.Settings.Ingest.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if limit := l.Settings.Ingest.MaxWorkers; limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

func (l *Loader) audit(caseID uint, action string, details map[string]any) {
	actor := l.Settings.Analysis.Actor
	if err := l.Store.LogAction(&caseID, actor, action, details); err != nil {
		l.log().Warn("failed to record audit entry",
			"action", action,
			"case_id", caseID,
			"error", err)
	}
}

// scale maps a sub-operation's progress onto a [lo,hi] slice of the
// overall 0..100 range.
func scale(current, total, lo, hi int) int {
	if total <= 0 {
		return lo
	}
	return lo + (hi-lo)*current/total
}
