// Package analysis defines the contracts for the external content
// analysis collaborators (object detection, OCR, classification, face
// matching) and drives the unprocessed-file work queue through them.
// The collaborators' internals live outside this module; everything here
// depends only on the narrow interfaces.
package analysis

import (
	"context"

	"github.com/forenstiq/forenstiq-go/internal/datastore"
)

// Analyzer is the content analysis collaborator. It consumes a readable
// local file path and returns structured tags, extracted text, a face
// count and a confidence score.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*datastore.AnalysisResult, error)
}

// MatchResult is the outcome of comparing one candidate image against a
// loaded reference photo.
type MatchResult struct {
	Matched    bool
	Confidence float64
	MatchCount int
}

// FaceMatcher is the identity-matching collaborator. The reference photo
// is loaded once up front; Match is then called per candidate image.
type FaceMatcher interface {
	LoadReference(ctx context.Context, photoPath string) error
	Match(ctx context.Context, imagePath string) (MatchResult, error)
}

// PathResolver turns an evidence file row into a readable local path,
// materializing archive members when needed. The returned cleanup is
// always safe to call.
type PathResolver interface {
	Resolve(ctx context.Context, file *datastore.EvidenceFile) (path string, cleanup func(), err error)
}

// LocalPathResolver resolves files that already live on disk.
type LocalPathResolver struct{}

func (LocalPathResolver) Resolve(_ context.Context, file *datastore.EvidenceFile) (string, func(), error) {
	return file.FilePath, func() {}, nil
}
