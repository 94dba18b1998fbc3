package embed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the embedding provider's Prometheus instruments, following
// the same per-adapter metrics recorder convention used by the other
// infra adapters.
type Metrics struct {
	cacheTotal    *prometheus.CounterVec
	fallbackTotal prometheus.Counter
}

// NewMetrics registers the embedding provider's instruments.
func NewMetrics() *Metrics {
	return &Metrics{
		cacheTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "embedding_cache_total",
			Help: "Embedding cache lookups, partitioned by hit/miss.",
		}, []string{"result"}),
		fallbackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "embedding_fallback_total",
			Help: "Times the deterministic fallback vector was used after retries were exhausted.",
		}),
	}
}

// RecordCache records a cache lookup outcome: "hit" or "miss".
func (m *Metrics) RecordCache(result string) {
	m.cacheTotal.WithLabelValues(result).Inc()
}

// RecordFallback records one fallback-vector usage.
func (m *Metrics) RecordFallback() {
	m.fallbackTotal.Inc()
}
