package extraction

import (
	"context"
	"log/slog"
	"sync"

	"github.com/forenstiq/forenstiq-go/internal/categorize"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/logging"
	"github.com/forenstiq/forenstiq-go/internal/observability"
)

// BatchStats aggregates the outcome of one processing batch. Errors
// counts isolated per-item failures; the batch itself still succeeds.
type BatchStats struct {
	Total       int
	Processed   int
	Errors      int
	PerCategory map[categorize.Category]int
}

// Processor converts descriptor batches into persisted evidence file
// rows using a bounded worker pool. Each insert runs in its own
// transaction scope, so workers never share one.
type Processor struct {
	Store   datastore.Interface
	Workers int
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

type itemResult struct {
	category categorize.Category
	err      error
}

func (p *Processor) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logging.ForService("extraction")
}

// Process fans the descriptors out across the pool, persisting one
// evidence file row per descriptor with the hash left null. Progress
// fires in completion order. A failing item is counted and skipped, and
// cancellation is observed between items, never mid-insert. After all
// workers finish, the owning case's aggregate counters are recomputed.
func (p *Processor) Process(ctx context.Context, files []FileDescriptor, caseID uint, progress ProgressFunc) (*BatchStats, error) {
	stats := &BatchStats{
		Total:       len(files),
		PerCategory: make(map[categorize.Category]int),
	}
	if len(files) == 0 {
		return stats, p.recount(caseID)
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan FileDescriptor)
	results := make(chan itemResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for desc := range jobs {
				results <- itemResult{
					category: desc.Category,
					err:      p.processOne(desc, caseID),
				}
			}
		}()
	}

	// The feeder stops handing out work once the context is canceled;
	// in-flight items still run to completion.
	go func() {
		defer close(jobs)
		for _, desc := range files {
			select {
			case jobs <- desc:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		progress.report(completed, stats.Total, "Processing files...")

		if res.err != nil {
			stats.Errors++
			p.Metrics.RecordError("insert")
			continue
		}
		stats.Processed++
		stats.PerCategory[res.category]++
		p.Metrics.RecordProcessed(string(res.category))
	}

	// The recount runs strictly after every worker has finished, so it
	// never interleaves with batch inserts.
	if err := p.recount(caseID); err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// processOne maps a descriptor to an evidence file row and inserts it.
func (p *Processor) processOne(desc FileDescriptor, caseID uint) error {
	relative := desc.Path
	source := desc.SourceArchive
	row := &datastore.EvidenceFile{
		CaseID:           caseID,
		FilePath:         desc.Path,
		FileRelativePath: &relative,
		FileName:         desc.Name,
		FileType:         string(desc.Category),
		FileSize:         desc.Size,
		FileHash:         desc.Hash, // nil until the lazy backfill
		DateModified:     desc.Modified,
		SourceArchive:    &source,
	}
	if err := p.Store.AddFile(row); err != nil {
		p.log().Error("failed to persist evidence file",
			"file", desc.Name,
			"case_id", caseID,
			"error", err)
		return err
	}
	return nil
}

func (p *Processor) recount(caseID uint) error {
	return p.Store.RecountCaseStatistics(caseID)
}
