package extraction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormatByExtension(t *testing.T) {
	cases := map[string]Format{
		"/evidence/phone.ufdr":   FormatCellebriteUFDR,
		"/evidence/phone.UFDR":   FormatCellebriteUFDR,
		"/evidence/tablet.ofb":   FormatOxygenOFB,
		"/evidence/laptop.mfdb":  FormatAxiomMFDB,
		"/evidence/disk.dd":      FormatRawImage,
		"/evidence/disk.raw":     FormatRawImage,
		"/evidence/dump.bin":     FormatRawImage,
		"/evidence/files.tar":    FormatTarArchive,
		"/evidence/files.tar.gz": FormatTarArchive,
		"/evidence/phone.ab":     FormatAndroidBackup,
		"/evidence/notes.txt":    FormatUnknown,
		"/evidence/noext":        FormatUnknown,
	}
	for path, want := range cases {
		assert.Equal(t, want, DetectFormat(path), "path %s", path)
	}
}

func TestDetectFormatZipDisambiguation(t *testing.T) {
	dir := t.TempDir()

	cellebrite := filepath.Join(dir, "export.zip")
	makeZip(t, cellebrite, map[string]string{
		"Report.xml":      "<report/>",
		"files/photo.jpg": "jpeg",
	})
	assert.Equal(t, FormatCellebriteZip, DetectFormat(cellebrite))

	generic := filepath.Join(dir, "tool.zip")
	makeZip(t, generic, map[string]string{
		"manifest.json":   "{}",
		"files/photo.jpg": "jpeg",
	})
	assert.Equal(t, FormatGenericZip, DetectFormat(generic))

	plain := filepath.Join(dir, "plain.zip")
	makeZip(t, plain, map[string]string{
		"files/photo.jpg": "jpeg",
	})
	assert.Equal(t, FormatZipArchive, DetectFormat(plain))

	// The vendor probe also applies to .clbx containers.
	clbx := filepath.Join(dir, "export.clbx")
	makeZip(t, clbx, map[string]string{
		"ufed_report.xml": "<report/>",
	})
	assert.Equal(t, FormatCellebriteZip, DetectFormat(clbx))
}

func TestDetectFormatNeverErrors(t *testing.T) {
	dir := t.TempDir()

	// A .zip that is not actually a ZIP degrades to the plain tag.
	bogus := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0o644))
	assert.Equal(t, FormatZipArchive, DetectFormat(bogus))

	// A missing file degrades too.
	assert.Equal(t, FormatZipArchive, DetectFormat(filepath.Join(dir, "missing.zip")))
}

func TestFormatIndexable(t *testing.T) {
	assert.True(t, FormatCellebriteZip.Indexable())
	assert.True(t, FormatCellebriteUFDR.Indexable())
	assert.True(t, FormatTarArchive.Indexable())
	assert.False(t, FormatRawImage.Indexable())
	assert.False(t, FormatAndroidBackup.Indexable())
	assert.False(t, FormatUnknown.Indexable())
}
