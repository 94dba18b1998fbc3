package maintenance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/adapter/persistence/memory"
	"catchup-feed/internal/usecase/maintenance"
)

func TestSweeper_Sweep_PrunesAgedRows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	old := &entity.Article{URL: "https://example.com/old", ContentHash: "h1", PublishedAt: time.Now().Add(-200 * 24 * time.Hour)}
	recent := &entity.Article{URL: "https://example.com/new", ContentHash: "h2", PublishedAt: time.Now()}
	require.NoError(t, store.PutArticle(ctx, old))
	require.NoError(t, store.PutArticle(ctx, recent))

	cfg := maintenance.DefaultConfig()
	cfg.ClusterMergeEnabled = false
	sweeper := maintenance.New(store, cfg, maintenance.NewMetrics())

	sweeper.Sweep(ctx)

	missing, err := store.FindArticleByURL(ctx, "https://example.com/old")
	require.NoError(t, err)
	assert.Nil(t, missing, "articles older than ArticleTTL are pruned")

	kept, err := store.FindArticleByURL(ctx, "https://example.com/new")
	require.NoError(t, err)
	assert.NotNil(t, kept, "recent articles survive the sweep")
}

func TestSweeper_StartStop_GracefulShutdown(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sweeper := maintenance.New(store, maintenance.DefaultConfig(), maintenance.NewMetrics())

	sweeper.Start(ctx)
	sweeper.Stop()
}

func TestSweeper_MergeClusters_FoldsSimilarClusters(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	now := time.Now()
	a := &entity.Cluster{
		ArticleIDs: []int64{1},
		Category:   "business",
		Tags:       []string{"merger", "tech"},
		Sources:    []string{"reuters"},
		Centroid:   entity.Centroid{MeanPublishAt: now},
	}
	b := &entity.Cluster{
		ArticleIDs: []int64{2},
		Category:   "business",
		Tags:       []string{"merger", "finance"},
		Sources:    []string{"reuters"},
		Centroid:   entity.Centroid{MeanPublishAt: now.Add(time.Hour)},
	}
	require.NoError(t, store.PutCluster(ctx, a))
	require.NoError(t, store.PutCluster(ctx, b))

	cfg := maintenance.DefaultConfig()
	cfg.ClusterMergeThreshold = 0.5
	sweeper := maintenance.New(store, cfg, maintenance.NewMetrics())

	sweeper.Sweep(ctx)

	clusters, err := store.ListClusters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, clusters, 1, "the two similar clusters should have folded into one")
	assert.ElementsMatch(t, []int64{1, 2}, clusters[0].ArticleIDs)
}
