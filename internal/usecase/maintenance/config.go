package maintenance

import "time"

// Config holds the offline maintenance sweep's tunables (spec 10.3, 10.6).
type Config struct {
	// Interval is how often the sweep runs; spec suggests hourly.
	Interval time.Duration

	// ArticleTTL, ClusterIdleTTL, EmbeddingTTL, AlertTTL bound how old a
	// row may get before the sweep removes it.
	ArticleTTL     time.Duration
	ClusterIdleTTL time.Duration
	EmbeddingTTL   time.Duration
	AlertTTL       time.Duration

	// ClusterMergeEnabled turns on the inter-cluster merge pass.
	ClusterMergeEnabled bool

	// ClusterMergeThreshold is the minimum centroid similarity (category
	// match + tag/source overlap) above which two clusters are folded
	// into one (spec default 0.8).
	ClusterMergeThreshold float64

	// ClusterMergeScanLimit bounds how many of the most recently updated
	// clusters are considered per merge pass, keeping the O(n^2) compare
	// cost bounded.
	ClusterMergeScanLimit int
}

// DefaultConfig returns the maintenance sweep's default tunables.
func DefaultConfig() Config {
	return Config{
		Interval:              1 * time.Hour,
		ArticleTTL:            90 * 24 * time.Hour,
		ClusterIdleTTL:        7 * 24 * time.Hour,
		EmbeddingTTL:          7 * 24 * time.Hour,
		AlertTTL:              30 * 24 * time.Hour,
		ClusterMergeEnabled:   true,
		ClusterMergeThreshold: 0.8,
		ClusterMergeScanLimit: 200,
	}
}
