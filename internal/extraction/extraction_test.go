package extraction

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
)

// verifyNoLeaks checks for leaked goroutines while ignoring the sql
// connection pool, which stays alive until the store's cleanup closes it.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

// makeZip writes a ZIP archive with the given entry paths and contents.
// Entry paths ending in "/" become directory entries.
func makeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

// makeTar writes a tarball, gzip-compressed when the path ends in .gz.
func makeTar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var tw *tar.Writer
	if filepath.Ext(path) == ".gz" {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(f)
	}
	defer tw.Close()

	for name, content := range entries {
		hdr := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Now(),
		}
		if name[len(name)-1] == '/' {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
			require.NoError(t, tw.WriteHeader(hdr))
			continue
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"
	settings.Ingest.Workers = 4
	settings.Ingest.MaxWorkers = 8
	settings.Ingest.InsertRetries = 1
	settings.Ingest.RetryBackoff = time.Millisecond
	settings.Analysis.Actor = "tester"
	return settings
}

func createTestStore(t *testing.T, settings *conf.Settings) datastore.Interface {
	t.Helper()
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func createTestLoader(t *testing.T) (*Loader, uint) {
	t.Helper()
	settings := testSettings(t)
	store := createTestStore(t, settings)

	c := &datastore.Case{CaseNumber: "FR-2026-100", CaseName: "Loader Test"}
	require.NoError(t, store.CreateCase(c))

	return NewLoader(store, settings, nil), c.ID
}
