// Package observability exposes prometheus metrics for the ingestion
// pipeline. Callers that do not care about metrics pass a nil *Metrics;
// every recording method is nil-safe.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's prometheus collectors.
type Metrics struct {
	filesIndexed    *prometheus.CounterVec
	filesProcessed  *prometheus.CounterVec
	processingError *prometheus.CounterVec
	ingestDuration  *prometheus.HistogramVec
	hashesComputed  prometheus.Counter
}

// NewMetrics creates and registers the pipeline collectors on the given
// registerer. Pass prometheus.DefaultRegisterer for the process-wide
// registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		filesIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forenstiq_files_indexed_total",
			Help: "Number of archive entries indexed, by container format",
		}, []string{"format"}),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forenstiq_files_processed_total",
			Help: "Number of evidence files persisted, by category",
		}, []string{"category"}),
		processingError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forenstiq_processing_errors_total",
			Help: "Number of per-item failures during ingestion, by stage",
		}, []string{"stage"}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forenstiq_ingest_duration_seconds",
			Help:    "Wall-clock duration of ingestion batches, by container format",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"format"}),
		hashesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forenstiq_hashes_computed_total",
			Help: "Number of content hashes backfilled lazily",
		}),
	}

	collectors := []prometheus.Collector{
		m.filesIndexed, m.filesProcessed, m.processingError,
		m.ingestDuration, m.hashesComputed,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordIndexed counts one indexed archive entry.
func (m *Metrics) RecordIndexed(format string) {
	if m == nil {
		return
	}
	m.filesIndexed.WithLabelValues(format).Inc()
}

// RecordProcessed counts one persisted evidence file.
func (m *Metrics) RecordProcessed(category string) {
	if m == nil {
		return
	}
	m.filesProcessed.WithLabelValues(category).Inc()
}

// RecordError counts one isolated per-item failure.
func (m *Metrics) RecordError(stage string) {
	if m == nil {
		return
	}
	m.processingError.WithLabelValues(stage).Inc()
}

// RecordIngestDuration observes the wall-clock time of one batch.
func (m *Metrics) RecordIngestDuration(format string, seconds float64) {
	if m == nil {
		return
	}
	m.ingestDuration.WithLabelValues(format).Observe(seconds)
}

// RecordHashComputed counts one lazily backfilled content hash.
func (m *Metrics) RecordHashComputed() {
	if m == nil {
		return
	}
	m.hashesComputed.Inc()
}
