package memory

import (
	"context"
	"time"
)

func (s *Store) PruneArticles(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, a := range s.articles {
		if a.PublishedAt.Before(cutoff) {
			delete(s.articles, id)
			delete(s.byURL, a.URL)
			hashes := s.byHash[a.ContentHash]
			kept := hashes[:0]
			for _, hid := range hashes {
				if hid != id {
					kept = append(kept, hid)
				}
			}
			if len(kept) == 0 {
				delete(s.byHash, a.ContentHash)
			} else {
				s.byHash[a.ContentHash] = kept
			}
			removed++
		}
	}
	return removed, nil
}

func (s *Store) PruneIdleClusters(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, c := range s.clusters {
		if c.UpdatedAt.Before(cutoff) {
			delete(s.clusters, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) PruneEmbeddings(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, e := range s.embeddings {
		if e.CreatedAt.Before(cutoff) {
			delete(s.embeddings, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) PruneAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, a := range s.alerts {
		if a.CreatedAt.Before(cutoff) {
			delete(s.alerts, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) DeleteCluster(ctx context.Context, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clusters, id)
	return nil
}
