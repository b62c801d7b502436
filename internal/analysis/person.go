package analysis

import (
	"context"

	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/errors"
)

// PersonMatch pairs an image that contains the reference person with the
// matcher's confidence and face count.
type PersonMatch struct {
	File       datastore.EvidenceFile
	Confidence float64
	MatchCount int
}

// FindPerson runs the identity-matching collaborator over every image in
// the case and returns the files where the reference photo's subject
// appears. A matcher failure on one image is logged and skipped.
func (s *Service) FindPerson(ctx context.Context, caseID uint, referencePhoto string, progress func(current, total int, message string)) ([]PersonMatch, error) {
	if s.matcher == nil {
		return nil, errors.Newf("no face matcher registered").
			Component("analysis").
			Category(errors.CategoryAnalysis).
			Build()
	}
	if err := s.matcher.LoadReference(ctx, referencePhoto); err != nil {
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryAnalysis).
			FileContext(referencePhoto, 0).
			Build()
	}

	images, err := s.store.GetFilesByCaseAndTypes(caseID, []string{"image"})
	if err != nil {
		return nil, err
	}

	var matches []PersonMatch
	for idx := range images {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		file := &images[idx]
		if progress != nil {
			progress(idx+1, len(images), "Matching: "+file.FileName)
		}

		result, err := s.matchOne(ctx, file)
		if err != nil {
			s.logger.Error("face matching failed",
				"file", file.FileName,
				"file_id", file.ID,
				"error", err)
			continue
		}
		if result.Matched {
			matches = append(matches, PersonMatch{
				File:       *file,
				Confidence: result.Confidence,
				MatchCount: result.MatchCount,
			})
		}
	}

	s.logger.Info("person search complete",
		"case_id", caseID,
		"images", len(images),
		"matches", len(matches))
	return matches, nil
}

func (s *Service) matchOne(ctx context.Context, file *datastore.EvidenceFile) (MatchResult, error) {
	path, cleanup, err := s.resolver.Resolve(ctx, file)
	if err != nil {
		return MatchResult{}, err
	}
	defer cleanup()
	return s.matcher.Match(ctx, path)
}
