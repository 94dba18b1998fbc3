package postgres

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

func (s *Store) PruneArticles(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneArticles", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneArticles", Err: err}
	}
	return n, nil
}

func (s *Store) PruneIdleClusters(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clusters WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneIdleClusters", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneIdleClusters", Err: err}
	}
	return n, nil
}

func (s *Store) PruneEmbeddings(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneEmbeddings", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneEmbeddings", Err: err}
	}
	return n, nil
}

func (s *Store) PruneAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneAlerts", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &entity.StoreError{Op: "PruneAlerts", Err: err}
	}
	return n, nil
}

func (s *Store) DeleteCluster(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clusters WHERE id = $1`, id); err != nil {
		return &entity.StoreError{Op: "DeleteCluster", Err: err}
	}
	return nil
}
