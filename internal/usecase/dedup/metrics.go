package dedup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dedup engine's Prometheus instruments, following the
// same promauto-at-construction convention as internal/usecase/ingest.Metrics.
type Metrics struct {
	outcomesTotal *prometheus.CounterVec
	methodsTotal  *prometheus.CounterVec
}

// NewMetrics registers the dedup stage's instruments.
func NewMetrics() *Metrics {
	return &Metrics{
		outcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dedup_outcomes_total",
			Help: "Articles processed by the dedup engine, partitioned by outcome.",
		}, []string{"outcome"}),
		methodsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dedup_detection_method_total",
			Help: "Duplicate matches, partitioned by the detection method that decided them.",
		}, []string{"method"}),
	}
}

// RecordOutcome records one terminal processing outcome: "unique",
// "duplicate", or "abandoned".
func (m *Metrics) RecordOutcome(outcome string) {
	m.outcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordMethod records which detection method decided a duplicate match.
func (m *Metrics) RecordMethod(method string) {
	m.methodsTotal.WithLabelValues(method).Inc()
}
