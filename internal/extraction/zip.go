package extraction

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/forenstiq/forenstiq-go/internal/categorize"
	"github.com/forenstiq/forenstiq-go/internal/errors"
	"github.com/forenstiq/forenstiq-go/internal/logging"
)

// zipIndexer builds a descriptor list from a ZIP container's central
// directory only. Member content is never decompressed during indexing,
// so memory stays proportional to the entry count, not the archive size.
type zipIndexer struct {
	path   string
	logger *slog.Logger
}

func (z *zipIndexer) log() *slog.Logger {
	if z.logger != nil {
		return z.logger
	}
	return logging.ForService("extraction")
}

// Index reads the central directory and returns one descriptor per
// non-directory entry, in archive order. Progress fires once per entry.
func (z *zipIndexer) Index(ctx context.Context, progress ProgressFunc) ([]FileDescriptor, error) {
	r, err := zip.OpenReader(z.path)
	if err != nil {
		return nil, errors.New(err).
			Component("extraction").
			Category(errors.CategoryFileIO).
			Context("operation", "zip_index").
			FileContext(z.path, 0).
			Build()
	}
	defer r.Close()

	total := len(r.File)
	files := make([]FileDescriptor, 0, total)

	for idx, entry := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("extraction").
				Category(errors.CategoryCancellation).
				Context("operation", "zip_index").
				Build()
		}

		progress.report(idx+1, total, "Indexing: "+entry.Name)

		if entry.FileInfo().IsDir() {
			continue
		}

		var modified = entry.Modified
		files = append(files, FileDescriptor{
			Name:          filepath.Base(entry.Name),
			Path:          entry.Name,
			Size:          int64(entry.UncompressedSize64),
			Modified:      &modified,
			Category:      categorize.ForPath(entry.Name),
			SourceArchive: z.path,
			Indexed:       true,
		})
	}

	z.log().Info("indexed archive",
		"archive", filepath.Base(z.path),
		"entries", len(files))
	return files, nil
}

// ExtractAll streams every matching entry to targetDir, preserving the
// archive's directory layout. filter may be nil to extract everything.
// A single entry failing to extract is logged and counted, never aborts
// the batch. Returns the number of entries written.
func (z *zipIndexer) ExtractAll(ctx context.Context, targetDir string, filter func(string) bool, progress ProgressFunc) (int, error) {
	r, err := zip.OpenReader(z.path)
	if err != nil {
		return 0, errors.New(err).
			Component("extraction").
			Category(errors.CategoryFileIO).
			Context("operation", "zip_extract").
			FileContext(z.path, 0).
			Build()
	}
	defer r.Close()

	total := len(r.File)
	extracted := 0

	for idx, entry := range r.File {
		if err := ctx.Err(); err != nil {
			return extracted, errors.New(err).
				Component("extraction").
				Category(errors.CategoryCancellation).
				Context("operation", "zip_extract").
				Build()
		}
		if filter != nil && !filter(entry.Name) {
			continue
		}

		progress.report(idx+1, total, "Extracting: "+filepath.Base(entry.Name))

		if err := extractZipEntry(entry, targetDir); err != nil {
			z.log().Error("failed to extract entry",
				"archive", filepath.Base(z.path),
				"entry", entry.Name,
				"error", err)
			continue
		}
		if !entry.FileInfo().IsDir() {
			extracted++
		}
	}

	z.log().Info("extracted archive",
		"archive", filepath.Base(z.path),
		"extracted", extracted,
		"target", targetDir)
	return extracted, nil
}

// extractZipEntry writes one entry under targetDir, rejecting paths that
// would escape it.
func extractZipEntry(entry *zip.File, targetDir string) error {
	cleaned := filepath.Clean(entry.Name)
	if strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || filepath.IsAbs(cleaned) {
		return errors.Newf("entry path escapes target directory: %s", entry.Name).
			Component("extraction").
			Category(errors.CategoryCorruptEntry).
			Build()
	}
	dest := filepath.Join(targetDir, cleaned)

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// openZipEntry opens one member of the archive for streaming reads. The
// caller must close both the returned reader and closer.
func openZipEntry(archivePath, entryPath string) (io.ReadCloser, func() error, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range r.File {
		if entry.Name == entryPath {
			rc, err := entry.Open()
			if err != nil {
				r.Close()
				return nil, nil, err
			}
			return rc, r.Close, nil
		}
	}
	r.Close()
	return nil, nil, errors.Newf("%w: archive member %s", errors.ErrFileNotFound, entryPath).
		Component("extraction").
		Category(errors.CategoryNotFound).
		Build()
}
