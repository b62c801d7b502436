package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// BackfillHashes computes the deferred sha256 digest for every file in
// the case that has none yet. Files indexed straight from an archive are
// hashed by streaming the member out of its source container; files
// imported from disk are hashed in place. A single unreadable file is
// counted and skipped.
func (l *Loader) BackfillHashes(ctx context.Context, caseID uint, progress ProgressFunc) (*BatchStats, error) {
	pending, err := l.Store.GetFilesMissingHash(caseID)
	if err != nil {
		return nil, err
	}

	stats := &BatchStats{Total: len(pending)}
	for idx := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		file := &pending[idx]
		progress.report(idx+1, stats.Total, "Hashing: "+file.FileName)

		digest, err := l.hashEvidenceFile(file)
		if err != nil {
			l.log().Error("failed to hash file",
				"file", file.FileName,
				"file_id", file.ID,
				"error", err)
			stats.Errors++
			l.Metrics.RecordError("hash")
			continue
		}
		if err := l.Store.SetFileHash(file.ID, digest); err != nil {
			stats.Errors++
			l.Metrics.RecordError("hash")
			continue
		}
		stats.Processed++
		l.Metrics.RecordHashComputed()
	}
	return stats, nil
}

// hashEvidenceFile streams the file's content through sha256 from
// wherever it lives, archive member or local path.
func (l *Loader) hashEvidenceFile(file *datastore.EvidenceFile) (string, error) {
	if file.SourceArchive != nil && *file.SourceArchive != "" {
		rc, closeArchive, err := openZipEntry(*file.SourceArchive, file.FilePath)
		if err != nil {
			return "", errors.New(err).
				Component("extraction").
				Category(errors.CategoryHashing).
				FileContext(file.FilePath, file.FileSize).
				Build()
		}
		defer rc.Close()
		defer closeArchive()
		return hashReader(rc)
	}
	return hashLocalFile(file.FilePath)
}

func hashLocalFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
