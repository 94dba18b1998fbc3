package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"catchup-feed/internal/domain/entity"
)

func articleIDsToCSV(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func csvToArticleIDs(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) PutCluster(ctx context.Context, c *entity.Cluster) error {
	centroidRaw, err := json.Marshal(c.Centroid)
	if err != nil {
		return &entity.StoreError{Op: "PutCluster", Err: err}
	}
	const query = `
INSERT INTO clusters (article_ids, centroid, category, tags, sources, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5, now(), now())
RETURNING id, created_at, updated_at`
	err = s.db.QueryRowContext(ctx, query,
		articleIDsToCSV(c.ArticleIDs), centroidRaw, c.Category,
		tagsToCSV(c.Tags), tagsToCSV(c.Sources),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return &entity.StoreError{Op: "PutCluster", Err: err}
	}
	return nil
}

func (s *Store) UpdateCluster(ctx context.Context, c *entity.Cluster) error {
	centroidRaw, err := json.Marshal(c.Centroid)
	if err != nil {
		return &entity.StoreError{Op: "UpdateCluster", Err: err}
	}
	const query = `
UPDATE clusters SET article_ids = $1, centroid = $2, category = $3, tags = $4, sources = $5, updated_at = now()
WHERE id = $6
RETURNING updated_at`
	err = s.db.QueryRowContext(ctx, query,
		articleIDsToCSV(c.ArticleIDs), centroidRaw, c.Category,
		tagsToCSV(c.Tags), tagsToCSV(c.Sources), c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return &entity.StoreError{Op: "UpdateCluster", Err: err}
	}
	return nil
}

func scanCluster(row interface{ Scan(...any) error }) (*entity.Cluster, error) {
	var c entity.Cluster
	var articleIDsCSV, tagsCSV, sourcesCSV string
	var centroidRaw []byte
	err := row.Scan(&c.ID, &articleIDsCSV, &centroidRaw, &c.Category, &tagsCSV, &sourcesCSV, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan cluster: %w", err)
	}
	c.ArticleIDs = csvToArticleIDs(articleIDsCSV)
	c.Tags = csvToTags(tagsCSV)
	c.Sources = csvToTags(sourcesCSV)
	if len(centroidRaw) > 0 {
		if err := json.Unmarshal(centroidRaw, &c.Centroid); err != nil {
			return nil, fmt.Errorf("scan cluster centroid: %w", err)
		}
	}
	return &c, nil
}

const clusterColumns = `id, article_ids, centroid, category, tags, sources, created_at, updated_at`

func (s *Store) GetCluster(ctx context.Context, id int64) (*entity.Cluster, error) {
	query := fmt.Sprintf(`SELECT %s FROM clusters WHERE id = $1`, clusterColumns)
	c, err := scanCluster(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, &entity.StoreError{Op: "GetCluster", Err: err}
	}
	return c, nil
}

func (s *Store) FindClusterByArticle(ctx context.Context, articleID int64) (*entity.Cluster, error) {
	idStr := strconv.FormatInt(articleID, 10)
	query := fmt.Sprintf(`
SELECT %s FROM clusters
WHERE (',' || article_ids || ',') LIKE '%%,' || $1 || ',%%'
LIMIT 1`, clusterColumns)
	c, err := scanCluster(s.db.QueryRowContext(ctx, query, idStr))
	if err != nil {
		return nil, &entity.StoreError{Op: "FindClusterByArticle", Err: err}
	}
	return c, nil
}

func (s *Store) ListClusters(ctx context.Context, limit int) ([]*entity.Cluster, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM clusters ORDER BY updated_at DESC LIMIT $1`, clusterColumns)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &entity.StoreError{Op: "ListClusters", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var clusters []*entity.Cluster
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, &entity.StoreError{Op: "ListClusters", Err: err}
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}
