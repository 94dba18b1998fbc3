package ingest_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/adapter/persistence/memory"
	"catchup-feed/internal/usecase/ingest"
)

// fakeFetcher returns a canned set of items per feed URL, or an error when
// the URL is listed in failURLs.
type fakeFetcher struct {
	mu        sync.Mutex
	items     map[string][]ingest.FeedItem
	failURLs  map[string]error
	callCount map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		items:     make(map[string][]ingest.FeedItem),
		failURLs:  make(map[string]error),
		callCount: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, feedURL string) ([]ingest.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount[feedURL]++
	if err, ok := f.failURLs[feedURL]; ok {
		return nil, err
	}
	return f.items[feedURL], nil
}

// fakeDedupHook records every article handed off for dedup evaluation.
type fakeDedupHook struct {
	mu       sync.Mutex
	enqueued []*entity.Article
}

func (h *fakeDedupHook) Enqueue(ctx context.Context, article *entity.Article) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enqueued = append(h.enqueued, article)
}

func (h *fakeDedupHook) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.enqueued)
}

func mustPutFeed(t *testing.T, store *memory.Store, name, url string) *entity.Feed {
	t.Helper()
	f := &entity.Feed{Name: name, URL: url, Category: "markets", Enabled: true}
	require.NoError(t, store.PutFeed(context.Background(), f))
	return f
}

// TestRunCycle_IdenticalRepost covers spec §8 scenario 1: the same story
// republished verbatim under a different URL. Both items must be persisted,
// the second flagged is_duplicate with a content_hash DuplicateLink against
// the first, and only the first reaches the dedup hook.
func TestRunCycle_IdenticalRepost(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustPutFeed(t, store, "Reuters", "https://feeds.example.com/reuters")

	fetcher := newFakeFetcher()
	fetcher.items["https://feeds.example.com/reuters"] = []ingest.FeedItem{
		{Title: "Fed raises rates", URL: "https://reuters.com/a", Content: "the central bank raised rates today", PublishedAt: time.Now().Add(-time.Hour)},
		{Title: "Fed raises rates", URL: "https://reuters.com/a-repost", Content: "the central bank raised rates today", PublishedAt: time.Now()},
	}

	hook := &fakeDedupHook{}
	svc := ingest.NewService(store, fetcher, nil, hook, nil, ingest.DefaultConfig())

	stats, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ItemsFetched)
	assert.Equal(t, 1, stats.ItemsNormalized)
	assert.Equal(t, 1, stats.ItemsDuplicate)

	first, err := store.FindArticleByURL(ctx, "https://reuters.com/a")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.False(t, first.IsDuplicate)

	second, err := store.FindArticleByURL(ctx, "https://reuters.com/a-repost")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.ID, second.OriginalArticleID)

	links, err := store.ListDuplicateLinks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, entity.MethodContentHash, links[0].DetectionMethod)
	assert.Equal(t, 1.0, links[0].SimilarityScore)
	assert.Equal(t, first.ID, links[0].OriginalArticleID)
	assert.Equal(t, second.ID, links[0].DuplicateArticleID)

	// Only the first (non-duplicate) article reaches the dedup engine.
	assert.Equal(t, 1, hook.count())
}

// TestRunCycle_ReplayingSameURLIsNoOp covers the round-trip idempotence
// property: re-presenting an already-stored URL produces no new article, no
// new link, and no dedup handoff.
func TestRunCycle_ReplayingSameURLIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustPutFeed(t, store, "AP", "https://feeds.example.com/ap")

	fetcher := newFakeFetcher()
	item := ingest.FeedItem{Title: "Markets close higher", URL: "https://ap.com/a", Content: "stocks rallied", PublishedAt: time.Now()}
	fetcher.items["https://feeds.example.com/ap"] = []ingest.FeedItem{item}

	hook := &fakeDedupHook{}
	svc := ingest.NewService(store, fetcher, nil, hook, nil, ingest.DefaultConfig())

	_, err := svc.RunCycle(ctx)
	require.NoError(t, err)

	stats, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ItemsFetched)
	assert.Equal(t, 0, stats.ItemsNormalized)
	assert.Equal(t, 1, stats.ItemsDuplicate)

	links, err := store.ListDuplicateLinks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Equal(t, 1, hook.count())
}

// TestRunCycle_PartialFailureIsNotFatal covers spec 4.B: one feed's fetch
// failure never aborts the cycle nor prevents other feeds' items from being
// normalized.
func TestRunCycle_PartialFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustPutFeed(t, store, "Broken", "https://feeds.example.com/broken")
	mustPutFeed(t, store, "Healthy", "https://feeds.example.com/healthy")

	fetcher := newFakeFetcher()
	fetcher.failURLs["https://feeds.example.com/broken"] = errors.New("connection refused")
	fetcher.items["https://feeds.example.com/healthy"] = []ingest.FeedItem{
		{Title: "Healthy feed item", URL: "https://healthy.example.com/a", Content: "some content", PublishedAt: time.Now()},
	}

	svc := ingest.NewService(store, fetcher, nil, nil, nil, ingest.DefaultConfig())

	stats, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FeedsAttempted)
	assert.Equal(t, 1, stats.FeedsFailed)
	assert.Equal(t, 1, stats.ItemsNormalized)

	feeds, err := store.ListFeeds(ctx)
	require.NoError(t, err)
	for _, f := range feeds {
		if f.Name == "Broken" {
			assert.Equal(t, int64(1), f.ErrorCount)
			assert.NotEmpty(t, f.LastError)
		}
	}
}

// TestRunCycle_MalformedItemSkippedNotFatal covers 4.C's malformed-item
// handling: an item missing both a link and GUID is dropped and counted,
// siblings in the same feed still process.
func TestRunCycle_MalformedItemSkippedNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mustPutFeed(t, store, "Mixed", "https://feeds.example.com/mixed")

	fetcher := newFakeFetcher()
	fetcher.items["https://feeds.example.com/mixed"] = []ingest.FeedItem{
		{Title: "", URL: "", Content: "no title or link"},
		{Title: "Valid item", URL: "https://mixed.example.com/a", Content: "valid content", PublishedAt: time.Now()},
	}

	svc := ingest.NewService(store, fetcher, nil, nil, nil, ingest.DefaultConfig())

	stats, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ItemsMalformed)
	assert.Equal(t, 1, stats.ItemsNormalized)
}
