package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the ingest stage, following
// the teacher's infra/worker.WorkerMetrics shape: one struct of
// promauto-registered instruments constructed once at startup.
type Metrics struct {
	cyclesTotal     *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	feedsFetched    *prometheus.CounterVec
	itemsTotal      *prometheus.CounterVec
}

// NewMetrics registers the ingest stage's instruments against the default
// registry via promauto, matching the teacher's MustRegister-is-a-no-op
// convention.
func NewMetrics() *Metrics {
	return &Metrics{
		cyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_cycles_total",
			Help: "Scheduler cycles completed, partitioned by outcome.",
		}, []string{"outcome"}),
		cycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_cycle_duration_seconds",
			Help:    "Duration of a full ingest cycle across all enabled feeds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		feedsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_feeds_fetched_total",
			Help: "Per-feed fetch attempts, partitioned by outcome.",
		}, []string{"feed", "outcome"}),
		itemsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_items_total",
			Help: "Feed items processed, partitioned by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordCycle records one completed scheduler cycle's aggregate stats.
func (m *Metrics) RecordCycle(stats *CycleStats) {
	outcome := "ok"
	if stats.FeedsFailed > 0 {
		outcome = "partial_failure"
	}
	m.cyclesTotal.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(stats.Duration.Seconds())
	m.itemsTotal.WithLabelValues("fetched").Add(float64(stats.ItemsFetched))
	m.itemsTotal.WithLabelValues("normalized").Add(float64(stats.ItemsNormalized))
	m.itemsTotal.WithLabelValues("duplicate").Add(float64(stats.ItemsDuplicate))
	m.itemsTotal.WithLabelValues("malformed").Add(float64(stats.ItemsMalformed))
}

// RecordFeedSuccess records a single feed's successful fetch outcome.
func (m *Metrics) RecordFeedSuccess(feed string, fetched, normalized, duplicate int) {
	m.feedsFetched.WithLabelValues(feed, "success").Inc()
}

// RecordFeedFailure records a single feed's failed fetch outcome.
func (m *Metrics) RecordFeedFailure(feed string) {
	m.feedsFetched.WithLabelValues(feed, "failure").Inc()
}
