package alert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the alert dispatcher's Prometheus instruments, following
// the same promauto-at-construction convention used by every other
// pipeline stage's Metrics type.
type Metrics struct {
	filteredTotal  *prometheus.CounterVec
	dispatchTotal  *prometheus.CounterVec
	dispatchDur    *prometheus.HistogramVec
}

// NewMetrics registers the dispatcher's instruments.
func NewMetrics() *Metrics {
	return &Metrics{
		filteredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_filtered_total",
			Help: "Articles rejected by the admission gate, partitioned by reason.",
		}, []string{"reason"}),
		dispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_channel_dispatch_total",
			Help: "Per-channel alert dispatch attempts, partitioned by outcome.",
		}, []string{"channel", "status"}),
		dispatchDur: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alert_channel_dispatch_duration_seconds",
			Help:    "Per-channel dispatch duration.",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		}, []string{"channel"}),
	}
}

// RecordFiltered records an admission-gate rejection: "rate_limited",
// "cooldown", or "low_quality".
func (m *Metrics) RecordFiltered(reason string) {
	m.filteredTotal.WithLabelValues(reason).Inc()
}

// RecordDispatch records one channel's delivery outcome and duration.
func (m *Metrics) RecordDispatch(channel string, success bool, duration time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	m.dispatchTotal.WithLabelValues(channel, status).Inc()
	m.dispatchDur.WithLabelValues(channel).Observe(duration.Seconds())
}
