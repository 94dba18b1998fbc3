package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/tracing"
	"catchup-feed/internal/pkg/redact"
	"catchup-feed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Service owns the scheduler-driven fetch/normalize pipeline (spec 4.A-4.C).
// One instance is constructed at startup and passed by handle; it holds no
// package-level state, per the teacher's and spec's shared preference for
// explicit owned instances over mutable singletons.
type Service struct {
	store          repository.Store
	fetcher        Fetcher
	contentFetcher ContentFetcher
	dedupHook      DedupHook
	metrics        *Metrics
	cfg            Config
}

// NewService wires the ingest stage. contentFetcher and dedupHook may be
// nil to disable full-page extraction or dedup handoff respectively (the
// latter only makes sense in tests).
func NewService(store repository.Store, fetcher Fetcher, contentFetcher ContentFetcher, dedupHook DedupHook, metrics *Metrics, cfg Config) *Service {
	return &Service{
		store:          store,
		fetcher:        fetcher,
		contentFetcher: contentFetcher,
		dedupHook:      dedupHook,
		metrics:        metrics,
		cfg:            cfg,
	}
}

// RunCycle fans a fetch job out across every enabled feed, bounded to
// cfg.MaxConcurrentFeeds concurrent fetches, and normalizes whatever each
// feed returns. A single feed's failure never aborts the cycle (spec 4.B:
// "partial failure is not fatal").
func (s *Service) RunCycle(ctx context.Context) (*CycleStats, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "ingest.run_cycle")
	defer span.End()

	start := time.Now()
	stats := &CycleStats{}

	feeds, err := s.store.ListEnabledFeeds(ctx)
	if err != nil {
		return stats, &entity.StoreError{Op: "list_enabled_feeds", Err: err}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.MaxConcurrentFeeds))

	outcomes := make([]feedRunOutcome, len(feeds))

	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			outcomes[i] = s.runFeed(gctx, feed)
			return nil
		})
	}
	// errgroup's Go never returns an error here (runFeed contains its own
	// failures), so Wait only propagates upstream cancellation.
	_ = g.Wait()

	for _, o := range outcomes {
		stats.FeedsAttempted++
		if o.failed {
			stats.FeedsFailed++
		}
		stats.ItemsFetched += o.fetched
		stats.ItemsNormalized += o.normalized
		stats.ItemsDuplicate += o.duplicate
		stats.ItemsMalformed += o.malformed
	}
	stats.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("ingest.feeds_attempted", stats.FeedsAttempted),
		attribute.Int("ingest.feeds_failed", stats.FeedsFailed),
		attribute.Int("ingest.items_normalized", stats.ItemsNormalized),
	)

	if s.metrics != nil {
		s.metrics.RecordCycle(stats)
	}

	slog.Info("ingest cycle complete",
		slog.Int("feeds_attempted", stats.FeedsAttempted),
		slog.Int("feeds_failed", stats.FeedsFailed),
		slog.Int("items_fetched", stats.ItemsFetched),
		slog.Int("items_normalized", stats.ItemsNormalized),
		slog.Int("items_duplicate", stats.ItemsDuplicate),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

type feedRunOutcome struct {
	fetched, normalized, duplicate, malformed int
	failed                                    bool
}

// runFeed fetches one feed and normalizes every item it returns. Fetch
// failures and per-item malformed errors are counted, logged, and recorded
// on the feed's bookkeeping; they never propagate to the caller.
func (s *Service) runFeed(ctx context.Context, feed *entity.Feed) feedRunOutcome {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	items, err := s.fetcher.Fetch(fetchCtx, feed.URL)
	fetchedAt := time.Now()
	if err != nil {
		slog.Warn("feed fetch failed", slog.String("feed", feed.Name), slog.String("url", feed.URL), slog.Any("error", err))
		// LastError is persisted verbatim by the store; a transport error can
		// embed a DSN password or provider API key, so it's masked first.
		sanitized := errors.New(redact.Error(err))
		if recErr := s.store.RecordFetchOutcome(ctx, feed.ID, fetchedAt, 0, sanitized); recErr != nil {
			slog.Error("failed to record feed fetch outcome", slog.String("feed", feed.Name), slog.Any("error", recErr))
		}
		if s.metrics != nil {
			s.metrics.RecordFeedFailure(feed.Name)
		}
		return feedRunOutcome{failed: true}
	}

	out := feedRunOutcome{fetched: len(items)}
	var processed int64
	for _, item := range items {
		article, nErr := s.normalizeAndPersist(ctx, feed, item)
		if nErr != nil {
			out.malformed++
			slog.Debug("item normalization failed", slog.String("feed", feed.Name), slog.Any("error", nErr))
			continue
		}
		if article == nil {
			// Exact URL duplicate: never persisted, per the round-trip
			// idempotence property ("re-presenting an already-stored URL
			// is a no-op").
			out.duplicate++
			continue
		}
		processed++
		if article.IsDuplicate {
			// Exact content-hash duplicate: persisted and linked, but not
			// handed to the dedup engine (spec 4.C step 4 already settled
			// it).
			out.duplicate++
		} else {
			out.normalized++
		}
	}

	if recErr := s.store.RecordFetchOutcome(ctx, feed.ID, fetchedAt, processed, nil); recErr != nil {
		slog.Error("failed to record feed fetch outcome", slog.String("feed", feed.Name), slog.Any("error", recErr))
	}
	if s.metrics != nil {
		s.metrics.RecordFeedSuccess(feed.Name, out.fetched, out.normalized, out.duplicate)
	}
	return out
}
