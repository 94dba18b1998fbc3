// Package ingest implements the feed scheduler, fetcher orchestration and
// article normalization stages (spec components A-C): a cron-driven cycle
// fans fetch jobs out across enabled feeds, each feed's raw items are
// cleaned, fingerprinted and entity-extracted, and the exact-duplicate
// short-circuit (by URL, then by content hash) runs before anything reaches
// the dedup engine.
package ingest

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

// FeedItem is a single raw entry parsed from an RSS/Atom feed, before
// normalization. Carries the fields the normalizer needs to populate a
// full entity.Article (author, image, GUID for items that omit a stable
// link).
type FeedItem struct {
	Title       string
	URL         string
	GUID        string
	Content     string
	Summary     string
	Author      string
	ImageURL    string
	PublishedAt time.Time
}

// Fetcher retrieves and parses a feed's items. Implemented by
// internal/infra/scraper.RSSFetcher.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedItem, error)
}

// ContentFetcher performs optional full-page extraction for a single item
// URL, used when the feed-provided content falls below the configured
// length threshold. Implemented by internal/infra/fetcher.ReadabilityFetcher.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// CycleStats summarizes one scheduler tick across every enabled feed.
type CycleStats struct {
	FeedsAttempted  int
	FeedsFailed     int
	ItemsFetched    int
	ItemsNormalized int
	ItemsDuplicate  int
	ItemsMalformed  int
	Duration        time.Duration
}

// DedupHook is called once per persisted, not-yet-duplicate-checked article.
// Implemented by internal/usecase/dedup.Engine.Enqueue; kept as a narrow
// interface here so ingest never imports the dedup package directly.
type DedupHook interface {
	Enqueue(ctx context.Context, article *entity.Article)
}
