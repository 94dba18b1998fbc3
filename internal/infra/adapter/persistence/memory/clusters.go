package memory

import (
	"context"
	"sort"
	"time"

	"catchup-feed/internal/domain/entity"
)

func cloneCluster(c *entity.Cluster) *entity.Cluster {
	cp := *c
	cp.ArticleIDs = append([]int64(nil), c.ArticleIDs...)
	cp.Tags = append([]string(nil), c.Tags...)
	cp.Sources = append([]string(nil), c.Sources...)
	return &cp
}

func (s *Store) PutCluster(ctx context.Context, c *entity.Cluster) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextClusterID++
	c.ID = s.nextClusterID
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.clusters[c.ID] = cloneCluster(c)
	return nil
}

func (s *Store) UpdateCluster(ctx context.Context, c *entity.Cluster) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[c.ID]; !ok {
		return entity.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	s.clusters[c.ID] = cloneCluster(c)
	return nil
}

func (s *Store) GetCluster(ctx context.Context, id int64) (*entity.Cluster, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clusters[id]
	if !ok {
		return nil, nil
	}
	return cloneCluster(c), nil
}

func (s *Store) FindClusterByArticle(ctx context.Context, articleID int64) (*entity.Cluster, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clusters {
		for _, id := range c.ArticleIDs {
			if id == articleID {
				return cloneCluster(c), nil
			}
		}
	}
	return nil, nil
}

func (s *Store) ListClusters(ctx context.Context, limit int) ([]*entity.Cluster, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}

	all := make([]*entity.Cluster, 0, len(s.clusters))
	for _, c := range s.clusters {
		all = append(all, cloneCluster(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
