package memory

import (
	"context"

	"catchup-feed/internal/repository"
)

func (s *Store) PutMetric(ctx context.Context, point repository.MetricPoint) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, point)
	return nil
}
