package memory

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

func (s *Store) PutEmbedding(ctx context.Context, e *entity.Embedding) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	e.CreatedAt = time.Now()
	cp := *e
	cp.Vector = append([]float32(nil), e.Vector...)
	s.embeddings[e.ArticleID] = &cp
	return nil
}

func (s *Store) FindEmbeddingByArticle(ctx context.Context, articleID int64) (*entity.Embedding, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.embeddings[articleID]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Vector = append([]float32(nil), e.Vector...)
	return &cp, nil
}
