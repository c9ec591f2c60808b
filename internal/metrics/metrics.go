// Package metrics holds the Prometheus collectors of the EDD pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ParsesTotal counts parse invocations by result.
	ParsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edd",
		Subsystem: "parse",
		Name:      "runs_total",
		Help:      "Total number of EDD parse invocations, labeled by result.",
	}, []string{"result"})

	// ParseDurationSeconds is the wall time of one parse invocation.
	ParseDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edd",
		Subsystem: "parse",
		Name:      "duration_seconds",
		Help:      "Time to parse one uploaded EDD file, from claim to persisted extraction.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"result"})

	// ParsedRowsTotal counts data rows by outcome across all parses.
	ParsedRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edd",
		Subsystem: "parse",
		Name:      "rows_total",
		Help:      "Total number of EDD data rows, labeled by outcome (parsed, skipped, duplicate).",
	}, []string{"outcome"})

	// ImportsTotal counts import invocations by result.
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edd",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Total number of import invocations, labeled by result or rejection kind.",
	}, []string{"result"})

	// ImportDurationSeconds is the wall time of one import invocation.
	ImportDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edd",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Time to commit one approved extraction.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// LabResultsTotal counts lab-result writes by outcome.
	LabResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edd",
		Subsystem: "import",
		Name:      "lab_results_total",
		Help:      "Lab results offered to storage, labeled by outcome (created, ignored).",
	}, []string{"outcome"})

	// AuditFallbackTotal counts audit entries parked on the queue entry after
	// every write attempt failed.
	AuditFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edd",
		Subsystem: "audit",
		Name:      "fallback_total",
		Help:      "Audit entries stored as pending on the queue entry after retries were exhausted.",
	})

	// AliasWritesTotal counts learned outfall-alias batches by result.
	AliasWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edd",
		Subsystem: "aliases",
		Name:      "writes_total",
		Help:      "Learned outfall-alias batches, labeled by result (saved, failed, dropped).",
	}, []string{"result"})

	// AliasQueueDepth is the number of alias batches waiting to be written.
	AliasQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edd",
		Subsystem: "aliases",
		Name:      "queue_depth",
		Help:      "Learned outfall-alias batches waiting in the background writer queue.",
	})
)

// Register registers the pipeline metrics with the default Prometheus
// registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ParsesTotal,
			ParseDurationSeconds,
			ParsedRowsTotal,
			ImportsTotal,
			ImportDurationSeconds,
			LabResultsTotal,
			AuditFallbackTotal,
			AliasWritesTotal,
			AliasQueueDepth,
		)
	})
}

// Since reports the seconds elapsed since start.
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
