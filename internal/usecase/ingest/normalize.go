package ingest

import (
	"context"
	"html"
	"log/slog"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/domain/entityextract"
	"catchup-feed/internal/domain/normalize"
)

// normalizeAndPersist implements spec 4.C: clean the raw item, compute its
// content hash, short-circuit on exact duplicates (by URL then by hash),
// extract entities, persist, and hand the article to the dedup hook.
//
// Returns (nil, nil) only when the item was dropped as an exact URL
// duplicate (never persisted). A content-hash duplicate is persisted and
// returned with IsDuplicate=true instead — callers distinguish the two
// outcomes via that flag rather than by nil-ness.
func (s *Service) normalizeAndPersist(ctx context.Context, feed *entity.Feed, item FeedItem) (*entity.Article, error) {
	title := normalize.CleanBoilerplate(html.UnescapeString(item.Title))
	content := normalize.CleanBoilerplate(html.UnescapeString(item.Content))
	summary := normalize.CleanBoilerplate(html.UnescapeString(item.Summary))

	url := item.URL
	if url == "" {
		url = item.GUID
	}
	if title == "" || url == "" {
		return nil, &entity.MalformedItemError{FeedURL: feed.URL, Reason: "missing title or link"}
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	// optional full-page extraction: only attempted when the feed content
	// falls short of the configured threshold, and failures are non-fatal —
	// the item keeps its feed-provided content.
	if s.cfg.ContentFetchEnabled && s.contentFetcher != nil && len([]rune(content)) < s.cfg.ContentFetchThreshold {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		full, err := s.contentFetcher.FetchContent(fetchCtx, url)
		cancel()
		if err != nil {
			slog.Debug("full-page extraction failed, keeping feed content",
				slog.String("url", url), slog.Any("error", err))
		} else if full != "" {
			content = normalize.CleanBoilerplate(full)
		}
	}

	hash := normalize.ContentHash(s.cfg.HashAlgorithm, title, content)

	// exact-duplicate short-circuit, step 1: by URL. This is the only true
	// no-persist no-op — the round-trip idempotence property names only
	// "an already-stored URL" as producing no new article and no new link.
	existing, err := s.store.FindArticleByURL(ctx, url)
	if err != nil {
		return nil, &entity.StoreError{Op: "find_article_by_url", Err: err}
	}
	if existing != nil {
		return nil, nil
	}

	// exact-duplicate short-circuit, step 2: by content hash. Spec 4.C step
	// 4 requires the incoming item still be ingested: persist it, flag it
	// is_duplicate=true against the found original, and record a
	// DuplicateLink{method=content_hash, score=1.0} — it just never reaches
	// the dedup engine, since the outcome is already settled.
	byHash, err := s.store.FindArticleByHash(ctx, hash)
	if err != nil {
		return nil, &entity.StoreError{Op: "find_article_by_hash", Err: err}
	}

	entities := entityextract.Extract(title+" "+content, entityextract.Config{TopN: s.cfg.EntityTopN})

	article := &entity.Article{
		URL:         url,
		ContentHash: hash,
		Title:       title,
		Summary:     summary,
		Content:     content,
		Source:      feed.Name,
		SourceID:    feed.ID,
		Category:    feed.Category,
		Tags:        append([]string(nil), feed.Tags...),
		Priority:    feed.Priority,
		PublishedAt: publishedAt,
		FetchedAt:   time.Now(),
		Author:      item.Author,
		ImageURL:    item.ImageURL,
		Entities:    entities,
	}
	if byHash != nil {
		article.DuplicateChecked = true
		article.IsDuplicate = true
		article.OriginalArticleID = byHash.ID
	}

	if err := s.store.PutArticle(ctx, article); err != nil {
		return nil, &entity.StoreError{Op: "put_article", Err: err}
	}

	if byHash != nil {
		if err := s.store.UpdateArticleFlags(ctx, article.ID, true, true, byHash.ID); err != nil {
			return nil, &entity.StoreError{Op: "update_article_flags", Err: err}
		}

		link := &entity.DuplicateLink{
			OriginalArticleID:  byHash.ID,
			DuplicateArticleID: article.ID,
			SimilarityScore:    1.0,
			DetectionMethod:    entity.MethodContentHash,
			Breakdown:          entity.SimilarityBreakdown{ContentHash: 1.0, Overall: 1.0},
			Metadata: entity.LinkMetadata{
				OriginalTitle:   byHash.Title,
				DuplicateTitle:  article.Title,
				OriginalSource:  byHash.Source,
				DuplicateSource: article.Source,
				DeltaTime:       article.PublishedAt.Sub(byHash.PublishedAt),
			},
		}
		if err := s.store.PutDuplicateLink(ctx, link); err != nil {
			return nil, &entity.StoreError{Op: "put_duplicate_link", Err: err}
		}

		slog.Debug("exact content-hash duplicate persisted and linked",
			slog.String("url", url), slog.Int64("article_id", article.ID),
			slog.Int64("original_article_id", byHash.ID))
		return article, nil
	}

	if s.dedupHook != nil {
		s.dedupHook.Enqueue(ctx, article)
	}

	return article, nil
}

