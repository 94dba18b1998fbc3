package postgres

import (
	"context"
	"database/sql"

	"catchup-feed/internal/domain/entity"

	"github.com/pgvector/pgvector-go"
)

func (s *Store) PutEmbedding(ctx context.Context, e *entity.Embedding) error {
	vector := pgvector.NewVector(e.Vector)
	const query = `
INSERT INTO embeddings (article_id, embedding, model, text_length, created_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (article_id, model) DO UPDATE SET
	embedding = EXCLUDED.embedding,
	text_length = EXCLUDED.text_length
RETURNING created_at`
	err := s.db.QueryRowContext(ctx, query, e.ArticleID, vector, e.Model, e.TextLength).Scan(&e.CreatedAt)
	if err != nil {
		return &entity.StoreError{Op: "PutEmbedding", Err: err}
	}
	return nil
}

func (s *Store) FindEmbeddingByArticle(ctx context.Context, articleID int64) (*entity.Embedding, error) {
	const query = `
SELECT article_id, embedding, model, text_length, created_at
FROM embeddings
WHERE article_id = $1
LIMIT 1`
	var e entity.Embedding
	var vector pgvector.Vector
	err := s.db.QueryRowContext(ctx, query, articleID).Scan(&e.ArticleID, &vector, &e.Model, &e.TextLength, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &entity.StoreError{Op: "FindEmbeddingByArticle", Err: err}
	}
	e.Vector = vector.Slice()
	return &e, nil
}
