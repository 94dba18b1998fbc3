package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/adapter/persistence/memory"
)

func TestStore_PruneArticles(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	old := &entity.Article{URL: "https://example.com/old", ContentHash: "h-old", PublishedAt: time.Now().Add(-100 * 24 * time.Hour)}
	recent := &entity.Article{URL: "https://example.com/new", ContentHash: "h-new", PublishedAt: time.Now()}
	require.NoError(t, s.PutArticle(ctx, old))
	require.NoError(t, s.PutArticle(ctx, recent))

	n, err := s.PruneArticles(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	missing, err := s.FindArticleByURL(ctx, "https://example.com/old")
	require.NoError(t, err)
	assert.Nil(t, missing)

	kept, err := s.FindArticleByURL(ctx, "https://example.com/new")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestStore_PruneIdleClusters(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &entity.Cluster{ArticleIDs: []int64{1}}
	require.NoError(t, s.PutCluster(ctx, c))

	n, err := s.PruneIdleClusters(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := s.GetCluster(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestStore_PruneEmbeddings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	e := &entity.Embedding{ArticleID: 1, Vector: []float32{0.1}, CreatedAt: time.Now().Add(-10 * 24 * time.Hour)}
	require.NoError(t, s.PutEmbedding(ctx, e))

	n, err := s.PruneEmbeddings(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := s.FindEmbeddingByArticle(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestStore_PruneAlerts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &entity.Alert{ArticleID: 1, CreatedAt: time.Now().Add(-40 * 24 * time.Hour)}
	require.NoError(t, s.PutAlert(ctx, a))

	n, err := s.PruneAlerts(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := s.CountAlertsSince(ctx, time.Now().Add(-365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_DeleteCluster(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &entity.Cluster{ArticleIDs: []int64{1}}
	require.NoError(t, s.PutCluster(ctx, c))
	require.NoError(t, s.DeleteCluster(ctx, c.ID))

	found, err := s.GetCluster(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
