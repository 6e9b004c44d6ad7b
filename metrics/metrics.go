// Package metrics exposes Prometheus collectors for ingestion and query
// answering. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moviekg"

// Row statuses recorded by IngestRow.
const (
	RowWritten = "written"
	RowSkipped = "skipped"
)

// Metrics contains the moviekg collectors.
type Metrics struct {
	IngestRows    *prometheus.CounterVec
	IngestBatches prometheus.Counter
	Answers       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg when non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IngestRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "rows_total",
				Help:      "Dataset rows handled by the graph builder",
			},
			[]string{"status"},
		),

		IngestBatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "batches_committed_total",
				Help:      "Batches committed to the graph store",
			},
		),

		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "answers_total",
				Help:      "Answered questions by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "store_duration_seconds",
				Help:      "Graph store lookup duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"intent"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.IngestRows, m.IngestBatches, m.Answers, m.QueryDuration)
	}

	return m
}

// IngestRow counts one row with the given status.
func (m *Metrics) IngestRow(status string) {
	if m == nil {
		return
	}

	m.IngestRows.WithLabelValues(status).Inc()
}

// IngestBatch counts one committed batch.
func (m *Metrics) IngestBatch() {
	if m == nil {
		return
	}

	m.IngestBatches.Inc()
}

// Answer counts one answered question.
func (m *Metrics) Answer(intent, outcome string) {
	if m == nil {
		return
	}

	m.Answers.WithLabelValues(intent, outcome).Inc()
}

// ObserveQuery records a store lookup duration.
func (m *Metrics) ObserveQuery(intent string, d time.Duration) {
	if m == nil {
		return
	}

	m.QueryDuration.WithLabelValues(intent).Observe(d.Seconds())
}
