// Package repository defines the consumer-side contract every persistence
// adapter (postgres, in-memory) must satisfy. Nothing in internal/usecase
// imports a concrete adapter; it depends only on the interfaces here.
package repository

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

// CandidateFilters narrows the dedup engine's candidate-retrieval query.
// A candidate must fall within the time window AND share at least one of
// Source, Category, or a tag with the current article.
type CandidateFilters struct {
	Source   string
	Category string
	Tags     []string
	// ExcludeID is the id of the article being deduplicated; it is never
	// returned as its own candidate.
	ExcludeID int64
}

// ArticleStore is the article-facing slice of the Store Interface.
type ArticleStore interface {
	// PutArticle inserts a new article and assigns its id, or returns
	// ErrAlreadyDuplicate-shaped conflict information via FindArticleByURL
	// first — callers are expected to check existence before inserting.
	PutArticle(ctx context.Context, article *entity.Article) error

	// FindArticleByURL returns (nil, nil) when no article has that URL.
	FindArticleByURL(ctx context.Context, url string) (*entity.Article, error)

	// FindArticleByHash returns (nil, nil) when no article has that
	// content hash.
	FindArticleByHash(ctx context.Context, hash string) (*entity.Article, error)

	// FindCandidateArticles returns up to 50 articles published within
	// `window` of now, excluding filters.ExcludeID, ordered by
	// published_at descending, restricted to those sharing at least one
	// of source/category/tag with the filters.
	FindCandidateArticles(ctx context.Context, window time.Duration, filters CandidateFilters) ([]*entity.Article, error)

	// UpdateArticleFlags persists the duplicate-detection outcome for one
	// article: duplicate_checked, is_duplicate, original_article_id.
	UpdateArticleFlags(ctx context.Context, articleID int64, duplicateChecked, isDuplicate bool, originalArticleID int64) error

	// MarkAlertSent flags an article so it is not re-considered for
	// alerting once an alert has been dispatched for it.
	MarkAlertSent(ctx context.Context, articleID int64) error

	// GetArticle fetches a single article by id.
	GetArticle(ctx context.Context, id int64) (*entity.Article, error)

	// SearchArticles is the admin full-text search path over
	// title/content/summary/entity names.
	SearchArticles(ctx context.Context, keyword string, limit int) ([]*entity.Article, error)
}

// DuplicateLinkStore is the duplicate-link slice of the Store Interface.
type DuplicateLinkStore interface {
	// PutDuplicateLink inserts a link. The store enforces a unique
	// (original_article_id, duplicate_article_id) constraint.
	PutDuplicateLink(ctx context.Context, link *entity.DuplicateLink) error

	// ListDuplicateLinks returns links for the admin surface, most recent
	// first.
	ListDuplicateLinks(ctx context.Context, limit int) ([]*entity.DuplicateLink, error)
}

// ClusterStore is the cluster slice of the Store Interface.
type ClusterStore interface {
	// PutCluster inserts a new cluster and assigns its id.
	PutCluster(ctx context.Context, cluster *entity.Cluster) error

	// UpdateCluster persists an existing cluster's article membership and
	// recomputed centroid.
	UpdateCluster(ctx context.Context, cluster *entity.Cluster) error

	// GetCluster fetches a cluster by id.
	GetCluster(ctx context.Context, id int64) (*entity.Cluster, error)

	// FindClusterByArticle returns the cluster containing articleID, or
	// (nil, nil) if the article belongs to no cluster.
	FindClusterByArticle(ctx context.Context, articleID int64) (*entity.Cluster, error)

	// ListClusters returns clusters for the admin surface, most recently
	// updated first.
	ListClusters(ctx context.Context, limit int) ([]*entity.Cluster, error)
}

// EmbeddingStore is the embedding slice of the Store Interface.
type EmbeddingStore interface {
	// PutEmbedding upserts the embedding for an article.
	PutEmbedding(ctx context.Context, embedding *entity.Embedding) error

	// FindEmbeddingByArticle returns (nil, nil) when the article has no
	// stored embedding yet.
	FindEmbeddingByArticle(ctx context.Context, articleID int64) (*entity.Embedding, error)
}

// AlertStore is the alert slice of the Store Interface.
type AlertStore interface {
	// PutAlert inserts a new alert and assigns its id.
	PutAlert(ctx context.Context, alert *entity.Alert) error

	// UpdateAlertStatus persists the dispatch outcome: status, per-channel
	// results, and sent_at.
	UpdateAlertStatus(ctx context.Context, alertID int64, status entity.AlertStatus, results []entity.ChannelResult, sentAt *time.Time) error

	// ListRecentAlerts returns alerts created within `window` of now, most
	// recent first, used by the admission gate's rate-limit and cooldown
	// checks as well as the admin surface.
	ListRecentAlerts(ctx context.Context, window time.Duration, limit int) ([]*entity.Alert, error)

	// CountAlertsSince counts alerts created at or after `since`, used by
	// the max-alerts-per-hour admission check.
	CountAlertsSince(ctx context.Context, since time.Time) (int, error)

	// LastAlertForCategory returns the most recent alert in a category, or
	// (nil, nil) if none exists, used by the cooldown admission check.
	LastAlertForCategory(ctx context.Context, category string) (*entity.Alert, error)
}

// MetricPoint is a single named counter/gauge observation persisted for the
// admin metrics surface.
type MetricPoint struct {
	Name      string
	Value     float64
	Labels    map[string]string
	Timestamp time.Time
}

// MetricStore is the metrics slice of the Store Interface.
type MetricStore interface {
	// PutMetric persists one observation. Implementations may batch or
	// sample; PutMetric itself must never block the caller's hot path for
	// more than its context deadline.
	PutMetric(ctx context.Context, point MetricPoint) error
}

// FeedStore is the feed-configuration slice of the Store Interface, backing
// the admin CRUD surface over ingestion sources.
type FeedStore interface {
	PutFeed(ctx context.Context, feed *entity.Feed) error
	UpdateFeed(ctx context.Context, feed *entity.Feed) error
	GetFeed(ctx context.Context, id int64) (*entity.Feed, error)
	ListFeeds(ctx context.Context) ([]*entity.Feed, error)
	ListEnabledFeeds(ctx context.Context) ([]*entity.Feed, error)
	DeleteFeed(ctx context.Context, id int64) error

	// RecordFetchOutcome updates a feed's bookkeeping after a crawl
	// attempt: last_fetched_at always advances; on success
	// articles_processed accumulates and error fields clear; on failure
	// error_count increments and last_error/last_error_at are set.
	RecordFetchOutcome(ctx context.Context, feedID int64, fetchedAt time.Time, articlesProcessed int64, fetchErr error) error
}

// MaintenanceStore is the periodic-sweep slice of the Store Interface,
// backing the offline TTL-compaction and cluster-merge maintenance tasks
// (spec 10.3, 10.6). Every Prune method returns the number of rows removed
// so the caller can log/metric it; implementations must treat "nothing to
// prune" as success, not an error.
type MaintenanceStore interface {
	// PruneArticles deletes articles with published_at older than cutoff
	// and returns the count removed.
	PruneArticles(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneIdleClusters deletes clusters whose updated_at is older than
	// cutoff and returns the count removed.
	PruneIdleClusters(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneEmbeddings deletes cached embeddings created before cutoff and
	// returns the count removed.
	PruneEmbeddings(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneAlerts deletes alerts created before cutoff and returns the
	// count removed.
	PruneAlerts(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteCluster removes one cluster outright, used by the
	// inter-cluster merge pass once a cluster's membership has been
	// folded into another.
	DeleteCluster(ctx context.Context, id int64) error
}

// Store is the full consumer contract. Concrete adapters (postgres,
// in-memory) implement Store; usecase packages depend on this interface,
// never on a concrete adapter type.
type Store interface {
	ArticleStore
	DuplicateLinkStore
	ClusterStore
	EmbeddingStore
	AlertStore
	MetricStore
	FeedStore
	MaintenanceStore

	// Close releases any underlying connection pool or resources. It is
	// safe to call once during shutdown, after all in-flight operations
	// have drained.
	Close(ctx context.Context) error
}
