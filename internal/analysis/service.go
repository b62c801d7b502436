package analysis

import (
	"context"
	"log/slog"

	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/errors"
	"github.com/forenstiq/forenstiq-go/internal/logging"
)

// Service drives evidence files through the analysis collaborators. It is
// constructed explicitly and passed to its consumers; nothing here is a
// process-wide singleton, so tests can substitute the collaborators
// freely.
type Service struct {
	store    datastore.Interface
	analyzer Analyzer
	matcher  FaceMatcher
	resolver PathResolver
	logger   *slog.Logger
}

// QueueStats summarizes one pass over a case's unprocessed files.
type QueueStats struct {
	Total    int
	Analyzed int
	Errors   int
}

// NewService wires the collaborators together. analyzer and matcher may
// be nil when the corresponding capability is absent; resolver defaults
// to local paths.
func NewService(store datastore.Interface, analyzer Analyzer, matcher FaceMatcher, resolver PathResolver) *Service {
	if resolver == nil {
		resolver = LocalPathResolver{}
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		matcher:  matcher,
		resolver: resolver,
		logger:   logging.ForService("analysis"),
	}
}

// ProcessQueue drains the case's unprocessed-file queue through the
// analyzer, oldest import first. A failing analyzer call leaves that
// file unprocessed and moves on; it never aborts the pass. Cancellation
// is observed between files.
func (s *Service) ProcessQueue(ctx context.Context, caseID uint, progress func(current, total int, message string)) (*QueueStats, error) {
	if s.analyzer == nil {
		return nil, errors.New(errors.ErrNoAnalyzerRegistered).
			Component("analysis").
			Category(errors.CategoryAnalysis).
			Build()
	}

	queue, err := s.store.GetUnprocessedFiles(caseID)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{Total: len(queue)}
	for idx := range queue {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		file := &queue[idx]
		if progress != nil {
			progress(idx+1, stats.Total, "Analyzing: "+file.FileName)
		}

		if err := s.analyzeOne(ctx, file); err != nil {
			// The file keeps ai_processed=false and will be picked up
			// again on the next pass.
			s.logger.Error("analysis failed",
				"file", file.FileName,
				"file_id", file.ID,
				"error", err)
			stats.Errors++
			continue
		}
		stats.Analyzed++
	}

	s.logger.Info("analysis pass complete",
		"case_id", caseID,
		"total", stats.Total,
		"analyzed", stats.Analyzed,
		"errors", stats.Errors)
	return stats, nil
}

func (s *Service) analyzeOne(ctx context.Context, file *datastore.EvidenceFile) error {
	path, cleanup, err := s.resolver.Resolve(ctx, file)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := s.analyzer.Analyze(ctx, path)
	if err != nil {
		return errors.New(err).
			Component("analysis").
			Category(errors.CategoryAnalysis).
			FileContext(file.FilePath, file.FileSize).
			Build()
	}
	return s.store.UpdateAnalysis(file.ID, result)
}
