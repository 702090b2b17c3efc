// Package metrics counts pipeline records, embeddings and backend calls on
// a private Prometheus registry and can dump them in the textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// BackendBuckets spans a local sqlite query to a slow remote index call.
var BackendBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics holds every collector the toolkit updates.
type Metrics struct {
	Registry *prometheus.Registry

	// RecordsTotal counts records processed per pipeline stage and outcome.
	RecordsTotal *prometheus.CounterVec
	// EmbeddingsTotal counts documents sent for embedding by outcome.
	EmbeddingsTotal *prometheus.CounterVec
	// BackendOpsTotal counts backend calls by backend, operation and outcome.
	BackendOpsTotal *prometheus.CounterVec
	// BackendLatency records backend call duration in seconds.
	BackendLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbvec_records_total",
				Help: "Records processed",
			},
			[]string{"stage", "outcome"},
		),
		EmbeddingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbvec_embeddings_total",
				Help: "Documents embedded",
			},
			[]string{"outcome"},
		),
		BackendOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbvec_backend_operations_total",
				Help: "Backend operations",
			},
			[]string{"backend", "op", "outcome"},
		),
		BackendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bbvec_backend_latency_seconds",
				Help:    "Backend latency",
				Buckets: BackendBuckets,
			},
			[]string{"backend", "op"},
		),
	}
	m.Registry.MustRegister(m.RecordsTotal, m.EmbeddingsTotal, m.BackendOpsTotal, m.BackendLatency)
	return m
}

// Records adds n records for stage with outcome. A nil Metrics is a no-op.
func (m *Metrics) Records(stage, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(stage, outcome).Add(float64(n))
}

// Embeddings adds n embedding outcomes.
func (m *Metrics) Embeddings(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EmbeddingsTotal.WithLabelValues(outcome).Add(float64(n))
}

// ObserveBackend records one backend call started at start; err decides the outcome.
func (m *Metrics) ObserveBackend(backend, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.BackendOpsTotal.WithLabelValues(backend, op, outcome).Inc()
	m.BackendLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry to path for a node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
