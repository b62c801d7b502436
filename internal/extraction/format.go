// Package extraction implements the evidence ingestion pipeline: container
// format detection, streaming archive indexing, parallel metadata
// processing into the case store, and lazy content hashing.
package extraction

import (
	"archive/zip"
	"path/filepath"
	"strings"
)

// Format identifies a recognized extraction container type.
type Format string

// Known extraction container formats.
const (
	FormatCellebriteUFDR Format = "cellebrite_ufdr"
	FormatOxygenOFB      Format = "oxygen_ofb"
	FormatAxiomMFDB      Format = "axiom_mfdb"
	FormatCellebriteZip  Format = "cellebrite_zip"
	FormatGenericZip     Format = "generic_zip"
	FormatZipArchive     Format = "zip_archive"
	FormatRawImage       Format = "raw_image"
	FormatTarArchive     Format = "tar_archive"
	FormatAndroidBackup  Format = "android_backup"
	FormatUnknown        Format = "unknown"
)

// DetectFormat classifies an extraction container by extension and, for
// ambiguous ZIP-based extensions, by its top-level entry listing. It is a
// read-only probe and never returns an error; anything unrecognized
// degrades to FormatUnknown.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	switch ext {
	case ".ufdr":
		return FormatCellebriteUFDR
	case ".ofb":
		return FormatOxygenOFB
	case ".mfdb":
		return FormatAxiomMFDB
	case ".zip", ".clbx":
		return probeZipLayout(path)
	case ".bin", ".dd", ".raw":
		return FormatRawImage
	case ".tar":
		return FormatTarArchive
	case ".ab":
		return FormatAndroidBackup
	}
	if strings.HasSuffix(name, ".tar.gz") {
		return FormatTarArchive
	}
	return FormatUnknown
}

// probeZipLayout opens only the central directory of a ZIP container to
// tell vendor layouts apart: a report-style XML entry marks a Cellebrite
// export, a manifest/metadata JSON marks a generic tool export. Unreadable
// containers fall back to the plain archive tag.
func probeZipLayout(path string) Format {
	r, err := zip.OpenReader(path)
	if err != nil {
		return FormatZipArchive
	}
	defer r.Close()

	hasManifest := false
	for _, f := range r.File {
		lower := strings.ToLower(f.Name)
		if strings.HasSuffix(lower, ".xml") && strings.Contains(lower, "report") {
			return FormatCellebriteZip
		}
		if f.Name == "manifest.json" || f.Name == "metadata.json" {
			hasManifest = true
		}
	}
	if hasManifest {
		return FormatGenericZip
	}
	return FormatZipArchive
}

// zipBacked reports whether the format is a ZIP container the streaming
// indexer can read. Cellebrite UFDR exports are ZIP files with a vendor
// extension.
func (f Format) zipBacked() bool {
	switch f {
	case FormatCellebriteUFDR, FormatOxygenOFB, FormatCellebriteZip,
		FormatGenericZip, FormatZipArchive:
		return true
	}
	return false
}

// Indexable reports whether a streaming indexer exists for the format.
func (f Format) Indexable() bool {
	return f.zipBacked() || f == FormatTarArchive
}
