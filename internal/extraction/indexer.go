package extraction

import (
	"context"
	"time"

	"github.com/forenstiq/forenstiq-go/internal/categorize"
	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// ProgressFunc reports incremental progress of a long-running pipeline
// call. It is invoked at least once per processed item and must be safe to
// call from the goroutine driving the operation. A nil ProgressFunc is
// always accepted.
type ProgressFunc func(current, total int, message string)

func (p ProgressFunc) report(current, total int, message string) {
	if p != nil {
		p(current, total, message)
	}
}

// FileDescriptor is the lightweight, pre-persistence record for one
// archive member. It is produced by an Indexer and consumed by the
// Processor; Hash stays nil until the lazy backfill runs.
type FileDescriptor struct {
	Name          string
	Path          string
	Size          int64
	Modified      *time.Time
	Category      categorize.Category
	SourceArchive string
	Indexed       bool
	Hash          *string
}

// Indexer reads a container's central directory or entry table and
// produces one descriptor per non-directory member, without decompressing
// member content.
type Indexer interface {
	Index(ctx context.Context, progress ProgressFunc) ([]FileDescriptor, error)
}

// NewIndexer resolves a streaming indexer for the container at path.
// Formats without a readable entry table (raw disk images, Android
// backups, vendor databases) fail with ErrUnsupportedFormat.
func NewIndexer(path string) (Indexer, Format, error) {
	format := DetectFormat(path)
	switch {
	case format.zipBacked():
		return &zipIndexer{path: path}, format, nil
	case format == FormatTarArchive:
		return &tarIndexer{path: path}, format, nil
	}
	return nil, format, newUnsupported(format, path, "indexing")
}

func newUnsupported(format Format, path, operation string) error {
	return errors.Newf("%w: %s container %s", errors.ErrUnsupportedFormat, format, path).
		Component("extraction").
		Category(errors.CategoryUnsupportedFormat).
		Context("format", string(format)).
		Context("operation", operation).
		Build()
}
