package maintenance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the maintenance sweep's Prometheus instruments, following
// the same promauto-at-construction convention as every other stage.
type Metrics struct {
	rowsPruned   *prometheus.CounterVec
	sweepsTotal  *prometheus.CounterVec
	clustersMerged prometheus.Counter
}

// NewMetrics registers the maintenance sweep's instruments.
func NewMetrics() *Metrics {
	return &Metrics{
		rowsPruned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_rows_pruned_total",
			Help: "Rows removed by the TTL sweep, partitioned by table.",
		}, []string{"table"}),
		sweepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_sweeps_total",
			Help: "Maintenance sweeps completed, partitioned by outcome.",
		}, []string{"outcome"}),
		clustersMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "maintenance_clusters_merged_total",
			Help: "Clusters folded into another cluster by the merge pass.",
		}),
	}
}

func (m *Metrics) recordPruned(table string, n int64) {
	if n > 0 {
		m.rowsPruned.WithLabelValues(table).Add(float64(n))
	}
}
