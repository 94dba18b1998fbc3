package postgres

import (
	"context"
	"encoding/json"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// PutMetric persists one observation for historical metric queries. This
// is a best-effort write path; Prometheus remains the primary live metrics
// surface and this table only backs longer-horizon query-by-name lookups.
func (s *Store) PutMetric(ctx context.Context, point repository.MetricPoint) error {
	labelsRaw, err := json.Marshal(point.Labels)
	if err != nil {
		return &entity.StoreError{Op: "PutMetric", Err: err}
	}
	const query = `
INSERT INTO metrics (name, value, labels, recorded_at)
VALUES ($1, $2, $3, $4)`
	_, err = s.db.ExecContext(ctx, query, point.Name, point.Value, labelsRaw, point.Timestamp)
	if err != nil {
		return &entity.StoreError{Op: "PutMetric", Err: err}
	}
	return nil
}
