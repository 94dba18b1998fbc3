// Package maintenance runs the offline housekeeping pass spec 10.3/10.6
// call for: a periodic TTL sweep over aged articles/clusters/embeddings/
// alerts, and a separate inter-cluster similarity merge pass. Both are
// treated as maintenance, not online dedup-engine logic — a deliberate
// choice recorded in DESIGN.md resolving the spec's cluster-merge Open
// Question, since folding an O(clusters^2) comparison into the hot
// enqueue path would slow down every online dedup decision for the sake
// of a correction that can just as well run on a slower clock.
package maintenance

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// Sweeper owns the maintenance ticker. One instance is constructed at
// startup and run for the worker's lifetime; it holds no state beyond its
// store handle and config.
type Sweeper struct {
	store   repository.Store
	cfg     Config
	metrics *Metrics

	done chan struct{}
	stop chan struct{}
}

// New constructs a Sweeper.
func New(store repository.Store, cfg Config, metrics *Metrics) *Sweeper {
	return &Sweeper{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

// Start runs the sweep loop in its own goroutine until ctx is cancelled or
// Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the sweep loop to exit and blocks until it has.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one TTL-prune pass plus, if enabled, one cluster-merge pass.
// A failure in one sub-task never aborts the others. It is called on every
// tick but is also safe to call directly (e.g. from a diagnostic CLI or a
// test) to force an out-of-band sweep.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()
	outcome := "success"

	s.pruneTable(ctx, "articles", now.Add(-s.cfg.ArticleTTL), s.store.PruneArticles, &outcome)
	s.pruneTable(ctx, "clusters", now.Add(-s.cfg.ClusterIdleTTL), s.store.PruneIdleClusters, &outcome)
	s.pruneTable(ctx, "embeddings", now.Add(-s.cfg.EmbeddingTTL), s.store.PruneEmbeddings, &outcome)
	s.pruneTable(ctx, "alerts", now.Add(-s.cfg.AlertTTL), s.store.PruneAlerts, &outcome)

	if s.cfg.ClusterMergeEnabled {
		if merged, err := s.mergeClusters(ctx); err != nil {
			slog.Error("cluster merge pass failed", slog.Any("error", err))
			outcome = "partial"
		} else if merged > 0 {
			slog.Info("cluster merge pass complete", slog.Int("merged", merged))
		}
	}

	if s.metrics != nil {
		s.metrics.sweepsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Sweeper) pruneTable(ctx context.Context, table string, cutoff time.Time, prune func(context.Context, time.Time) (int64, error), outcome *string) {
	n, err := prune(ctx, cutoff)
	if err != nil {
		slog.Error("maintenance prune failed", slog.String("table", table), slog.Any("error", err))
		*outcome = "partial"
		return
	}
	if n > 0 {
		slog.Info("maintenance prune complete", slog.String("table", table), slog.Int64("removed", n))
	}
	if s.metrics != nil {
		s.metrics.recordPruned(table, n)
	}
}

// mergeClusters scans the most recently updated clusters and folds any
// pair whose centroid similarity clears cfg.ClusterMergeThreshold into one,
// keeping the earlier (lower id) cluster and deleting the other. It returns
// the number of clusters absorbed.
func (s *Sweeper) mergeClusters(ctx context.Context) (int, error) {
	clusters, err := s.store.ListClusters(ctx, s.cfg.ClusterMergeScanLimit)
	if err != nil {
		return 0, err
	}

	absorbed := make(map[int64]bool)
	merged := 0

	for i := 0; i < len(clusters); i++ {
		a := clusters[i]
		if absorbed[a.ID] {
			continue
		}
		for j := i + 1; j < len(clusters); j++ {
			b := clusters[j]
			if absorbed[b.ID] {
				continue
			}
			if centroidSimilarity(a, b) < s.cfg.ClusterMergeThreshold {
				continue
			}

			keep, drop := a, b
			if drop.ID < keep.ID {
				keep, drop = drop, keep
			}
			keep.ArticleIDs = mergeArticleIDs(keep.ArticleIDs, drop.ArticleIDs)
			keep.Tags = mergeStrings(keep.Tags, drop.Tags)
			keep.Sources = mergeStrings(keep.Sources, drop.Sources)

			if err := s.store.UpdateCluster(ctx, keep); err != nil {
				slog.Error("cluster merge update failed", slog.Int64("keep_id", keep.ID), slog.Any("error", err))
				continue
			}
			if err := s.store.DeleteCluster(ctx, drop.ID); err != nil {
				slog.Error("cluster merge delete failed", slog.Int64("drop_id", drop.ID), slog.Any("error", err))
				continue
			}

			absorbed[drop.ID] = true
			merged++
			if s.metrics != nil {
				s.metrics.clustersMerged.Inc()
			}
		}
	}

	return merged, nil
}

// centroidSimilarity scores two clusters on category match, tag/source
// overlap (Jaccard), and temporal proximity of their mean publish times —
// a coarse proxy for "these two clusters probably cover the same story",
// cheap enough to run over every pair in the scan window.
func centroidSimilarity(a, b *entity.Cluster) float64 {
	var score float64

	if strings.EqualFold(a.Category, b.Category) && a.Category != "" {
		score += 0.4
	}

	score += 0.3 * stringJaccard(a.Tags, b.Tags)
	score += 0.2 * stringJaccard(a.Sources, b.Sources)

	delta := a.Centroid.MeanPublishAt.Sub(b.Centroid.MeanPublishAt)
	if delta < 0 {
		delta = -delta
	}
	if delta <= 24*time.Hour {
		score += 0.1
	}

	return score
}

func stringJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[strings.ToLower(v)] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[strings.ToLower(v)] = struct{}{}
	}

	intersect := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersect++
		}
	}
	union := len(setA) + len(setB) - intersect
	if union == 0 {
		return 0
	}
	return float64(intersect) / float64(union)
}

func mergeArticleIDs(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, id := range append(append([]int64(nil), a...), b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func mergeStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string(nil), a...), b...) {
		key := strings.ToLower(v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}
