package memory

import (
	"context"
	"sort"
	"time"

	"catchup-feed/internal/domain/entity"
)

func cloneFeed(f *entity.Feed) *entity.Feed {
	cp := *f
	cp.Tags = append([]string(nil), f.Tags...)
	return &cp
}

func (s *Store) PutFeed(ctx context.Context, f *entity.Feed) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextFeedID++
	f.ID = s.nextFeedID
	s.feeds[f.ID] = cloneFeed(f)
	return nil
}

func (s *Store) UpdateFeed(ctx context.Context, f *entity.Feed) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feeds[f.ID]; !ok {
		return entity.ErrNotFound
	}
	s.feeds[f.ID] = cloneFeed(f)
	return nil
}

func (s *Store) GetFeed(ctx context.Context, id int64) (*entity.Feed, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.feeds[id]
	if !ok {
		return nil, nil
	}
	return cloneFeed(f), nil
}

func (s *Store) ListFeeds(ctx context.Context) ([]*entity.Feed, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Feed, 0, len(s.feeds))
	for _, f := range s.feeds {
		out = append(out, cloneFeed(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListEnabledFeeds(ctx context.Context) ([]*entity.Feed, error) {
	all, _ := s.ListFeeds(ctx)
	out := make([]*entity.Feed, 0, len(all))
	for _, f := range all {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) DeleteFeed(ctx context.Context, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feeds, id)
	return nil
}

func (s *Store) RecordFetchOutcome(ctx context.Context, feedID int64, fetchedAt time.Time, articlesProcessed int64, fetchErr error) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.feeds[feedID]
	if !ok {
		return entity.ErrNotFound
	}
	f.LastFetchedAt = &fetchedAt
	if fetchErr != nil {
		f.ErrorCount++
		f.LastError = fetchErr.Error()
		f.LastErrorAt = &fetchedAt
		return nil
	}
	f.ArticlesProcessed += articlesProcessed
	f.LastError = ""
	f.LastErrorAt = nil
	return nil
}
