// Package memory implements repository.Store entirely in process memory.
// It exists as the lightweight alternate backend for local development and
// tests, replacing the teacher's sqlite adapter: this module's retrieval
// pack carries no sqlite driver dependency, so rather than fabricate one an
// in-memory backend fills the same "backend you can run without a
// database" role while staying import-clean.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// Store is a mutex-guarded in-memory implementation of repository.Store.
// It is safe for concurrent use and intended for development, tests, and
// single-instance deployments that accept losing state on restart.
type Store struct {
	mu sync.RWMutex

	articles  map[int64]*entity.Article
	byURL     map[string]int64
	byHash    map[string][]int64
	nextArtID int64

	links      []*entity.DuplicateLink
	nextLinkID int64

	clusters      map[int64]*entity.Cluster
	nextClusterID int64

	embeddings map[int64]*entity.Embedding

	alerts      map[int64]*entity.Alert
	nextAlertID int64

	feeds      map[int64]*entity.Feed
	nextFeedID int64

	metrics []repository.MetricPoint
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		articles:   make(map[int64]*entity.Article),
		byURL:      make(map[string]int64),
		byHash:     make(map[string][]int64),
		clusters:   make(map[int64]*entity.Cluster),
		embeddings: make(map[int64]*entity.Embedding),
		alerts:     make(map[int64]*entity.Alert),
		feeds:      make(map[int64]*entity.Feed),
	}
}

func (s *Store) Close(ctx context.Context) error {
	_ = ctx
	return nil
}

func cloneArticle(a *entity.Article) *entity.Article {
	cp := *a
	cp.Tags = append([]string(nil), a.Tags...)
	cp.Entities = append([]entity.NamedEntity(nil), a.Entities...)
	return &cp
}

func (s *Store) PutArticle(ctx context.Context, a *entity.Article) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextArtID++
	a.ID = s.nextArtID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	stored := cloneArticle(a)
	s.articles[a.ID] = stored
	s.byURL[a.URL] = a.ID
	s.byHash[a.ContentHash] = append(s.byHash[a.ContentHash], a.ID)
	return nil
}

func (s *Store) FindArticleByURL(ctx context.Context, url string) (*entity.Article, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byURL[url]
	if !ok {
		return nil, nil
	}
	return cloneArticle(s.articles[id]), nil
}

func (s *Store) FindArticleByHash(ctx context.Context, hash string) (*entity.Article, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.byHash[hash]
	if !ok || len(ids) == 0 {
		return nil, nil
	}
	// earliest-created (first inserted) article with this hash
	oldest := s.articles[ids[0]]
	for _, id := range ids[1:] {
		if a := s.articles[id]; a.CreatedAt.Before(oldest.CreatedAt) {
			oldest = a
		}
	}
	return cloneArticle(oldest), nil
}

func (s *Store) GetArticle(ctx context.Context, id int64) (*entity.Article, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	return cloneArticle(a), nil
}

func (s *Store) FindCandidateArticles(ctx context.Context, window time.Duration, filters repository.CandidateFilters) ([]*entity.Article, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	wantTags := make(map[string]struct{}, len(filters.Tags))
	for _, t := range filters.Tags {
		wantTags[t] = struct{}{}
	}

	var matches []*entity.Article
	for id, a := range s.articles {
		if id == filters.ExcludeID {
			continue
		}
		if a.PublishedAt.Before(cutoff) {
			continue
		}
		sharesTag := false
		for _, t := range a.Tags {
			if _, ok := wantTags[t]; ok {
				sharesTag = true
				break
			}
		}
		if a.Source != filters.Source && a.Category != filters.Category && !sharesTag {
			continue
		}
		matches = append(matches, cloneArticle(a))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].PublishedAt.After(matches[j].PublishedAt)
	})
	if len(matches) > 50 {
		matches = matches[:50]
	}
	return matches, nil
}

func (s *Store) UpdateArticleFlags(ctx context.Context, articleID int64, duplicateChecked, isDuplicate bool, originalArticleID int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok {
		return entity.ErrNotFound
	}
	a.DuplicateChecked = duplicateChecked
	a.IsDuplicate = isDuplicate
	a.OriginalArticleID = originalArticleID
	now := time.Now()
	a.ProcessedAt = &now
	return nil
}

func (s *Store) MarkAlertSent(ctx context.Context, articleID int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok {
		return entity.ErrNotFound
	}
	a.AlertSent = true
	return nil
}

func (s *Store) SearchArticles(ctx context.Context, keyword string, limit int) ([]*entity.Article, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	keyword = strings.ToLower(keyword)

	var results []*entity.Article
	for _, a := range s.articles {
		if strings.Contains(strings.ToLower(a.Title), keyword) ||
			strings.Contains(strings.ToLower(a.Content), keyword) ||
			strings.Contains(strings.ToLower(a.Summary), keyword) {
			results = append(results, cloneArticle(a))
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].PublishedAt.After(results[j].PublishedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
