package extraction

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forenstiq/forenstiq-go/internal/categorize"
	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// tarIndexer streams a tarball's header sequence. Tar has no central
// directory, so the total entry count is unknown up front; progress
// reports the running index as both current and total while scanning.
type tarIndexer struct {
	path string
}

func (t *tarIndexer) Index(ctx context.Context, progress ProgressFunc) ([]FileDescriptor, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, errors.New(err).
			Component("extraction").
			Category(errors.CategoryFileIO).
			Context("operation", "tar_index").
			FileContext(t.path, 0).
			Build()
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(strings.ToLower(t.path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.New(err).
				Component("extraction").
				Category(errors.CategoryCorruptEntry).
				Context("operation", "tar_index").
				FileContext(t.path, 0).
				Build()
		}
		defer gz.Close()
		src = gz
	}

	tr := tar.NewReader(src)
	var files []FileDescriptor

	for seen := 0; ; {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("extraction").
				Category(errors.CategoryCancellation).
				Context("operation", "tar_index").
				Build()
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(err).
				Component("extraction").
				Category(errors.CategoryCorruptEntry).
				Context("operation", "tar_index").
				FileContext(t.path, 0).
				Build()
		}
		seen++
		progress.report(seen, seen, "Indexing: "+hdr.Name)

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		modified := hdr.ModTime
		files = append(files, FileDescriptor{
			Name:          filepath.Base(hdr.Name),
			Path:          hdr.Name,
			Size:          hdr.Size,
			Modified:      &modified,
			Category:      categorize.ForPath(hdr.Name),
			SourceArchive: t.path,
			Indexed:       true,
		})
		// Next() seeks past the member content without reading it.
	}

	return files, nil
}
