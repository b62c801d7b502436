package search

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/forenstiq/forenstiq-go/internal/datastore"
)

// Search evaluates the criteria against every file in the case and
// returns the matches ranked by match count descending. The sort is
// stable: ties keep their pre-sort order. When a reference photo is set
// and a face matcher is available, a second pass merges identity hits
// into the same ranking.
func (e *Engine) Search(ctx context.Context, caseID uint, criteria *Criteria) ([]Match, error) {
	files, err := e.caseFiles(caseID)
	if err != nil {
		return nil, err
	}

	if len(criteria.FileTypes) > 0 {
		files = filterByType(files, criteria.FileTypes)
	}
	e.logger.Info("searching case files",
		"case_id", caseID,
		"files", len(files))

	var results []Match
	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m := evaluate(&files[i], criteria); m.Count > 0 {
			results = append(results, m)
		}
	}

	if criteria.ReferencePhoto != "" && e.matcher != nil {
		results, err = e.faceMatchPass(ctx, caseID, criteria.ReferencePhoto, results)
		if err != nil {
			return nil, err
		}
	}

	sortByCount(results)
	e.logger.Info("search complete",
		"case_id", caseID,
		"matches", len(results))
	return results, nil
}

func filterByType(files []datastore.EvidenceFile, types []string) []datastore.EvidenceFile {
	filtered := make([]datastore.EvidenceFile, 0, len(files))
	for i := range files {
		if slices.Contains(types, files[i].FileType) {
			filtered = append(filtered, files[i])
		}
	}
	return filtered
}

// faceMatchPass runs the identity-matching collaborator over the case's
// images and merges its hits into the result set: new files are added
// with a single-hit match, files already present get one more hit. A
// matcher failure on one image is logged and skipped.
func (e *Engine) faceMatchPass(ctx context.Context, caseID uint, referencePhoto string, results []Match) ([]Match, error) {
	if err := e.matcher.LoadReference(ctx, referencePhoto); err != nil {
		return nil, err
	}

	images, err := e.store.GetFilesByCaseAndTypes(caseID, []string{"image"})
	if err != nil {
		return nil, err
	}

	indexByID := make(map[uint]int, len(results))
	for i := range results {
		indexByID[results[i].File.ID] = i
	}

	for i := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img := &images[i]

		path, cleanup, err := e.resolver.Resolve(ctx, img)
		if err != nil {
			e.logger.Error("could not materialize image for matching",
				"file", img.FileName, "error", err)
			continue
		}
		result, err := e.matcher.Match(ctx, path)
		cleanup()
		if err != nil {
			e.logger.Error("face matching failed",
				"file", img.FileName, "error", err)
			continue
		}
		if !result.Matched {
			continue
		}

		explanation := fmt.Sprintf("Face match: %.1f%% confidence", result.Confidence*100)
		if idx, ok := indexByID[img.ID]; ok {
			results[idx].hit(explanation)
			results[idx].FaceConfidence = result.Confidence
		} else {
			m := Match{File: *img, FaceConfidence: result.Confidence}
			m.hit(explanation)
			indexByID[img.ID] = len(results)
			results = append(results, m)
		}
	}
	return results, nil
}

func sortByCount(results []Match) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})
}
