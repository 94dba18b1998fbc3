package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catchup-feed/internal/domain/entity"
)

const feedColumns = `
	id, name, url, category, priority, enabled, tags,
	last_fetched_at, articles_processed, error_count, last_error, last_error_at`

func scanFeed(row interface{ Scan(...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var tagsCSV string
	var lastFetchedAt, lastErrorAt sql.NullTime
	var lastError sql.NullString

	err := row.Scan(
		&f.ID, &f.Name, &f.URL, &f.Category, &f.Priority, &f.Enabled, &tagsCSV,
		&lastFetchedAt, &f.ArticlesProcessed, &f.ErrorCount, &lastError, &lastErrorAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	f.Tags = csvToTags(tagsCSV)
	if lastFetchedAt.Valid {
		t := lastFetchedAt.Time
		f.LastFetchedAt = &t
	}
	if lastErrorAt.Valid {
		t := lastErrorAt.Time
		f.LastErrorAt = &t
	}
	f.LastError = lastError.String
	return &f, nil
}

func (s *Store) PutFeed(ctx context.Context, f *entity.Feed) error {
	const query = `
INSERT INTO feeds (name, url, category, priority, enabled, tags)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	err := s.db.QueryRowContext(ctx, query, f.Name, f.URL, f.Category, f.Priority, f.Enabled, tagsToCSV(f.Tags)).Scan(&f.ID)
	if err != nil {
		return &entity.StoreError{Op: "PutFeed", Err: err}
	}
	return nil
}

func (s *Store) UpdateFeed(ctx context.Context, f *entity.Feed) error {
	const query = `
UPDATE feeds SET name = $1, url = $2, category = $3, priority = $4, enabled = $5, tags = $6
WHERE id = $7`
	_, err := s.db.ExecContext(ctx, query, f.Name, f.URL, f.Category, f.Priority, f.Enabled, tagsToCSV(f.Tags), f.ID)
	if err != nil {
		return &entity.StoreError{Op: "UpdateFeed", Err: err}
	}
	return nil
}

func (s *Store) GetFeed(ctx context.Context, id int64) (*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE id = $1`, feedColumns)
	f, err := scanFeed(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, &entity.StoreError{Op: "GetFeed", Err: err}
	}
	return f, nil
}

func (s *Store) ListFeeds(ctx context.Context) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds ORDER BY name ASC`, feedColumns)
	return s.queryFeeds(ctx, query)
}

func (s *Store) ListEnabledFeeds(ctx context.Context) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE enabled = true ORDER BY name ASC`, feedColumns)
	return s.queryFeeds(ctx, query)
}

func (s *Store) queryFeeds(ctx context.Context, query string) ([]*entity.Feed, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &entity.StoreError{Op: "ListFeeds", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var feeds []*entity.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, &entity.StoreError{Op: "ListFeeds", Err: err}
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (s *Store) DeleteFeed(ctx context.Context, id int64) error {
	const query = `DELETE FROM feeds WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return &entity.StoreError{Op: "DeleteFeed", Err: err}
	}
	return nil
}

func (s *Store) RecordFetchOutcome(ctx context.Context, feedID int64, fetchedAt time.Time, articlesProcessed int64, fetchErr error) error {
	if fetchErr != nil {
		const query = `
UPDATE feeds SET last_fetched_at = $1, error_count = error_count + 1, last_error = $2, last_error_at = $1
WHERE id = $3`
		_, err := s.db.ExecContext(ctx, query, fetchedAt, fetchErr.Error(), feedID)
		if err != nil {
			return &entity.StoreError{Op: "RecordFetchOutcome", Err: err}
		}
		return nil
	}
	const query = `
UPDATE feeds SET last_fetched_at = $1, articles_processed = articles_processed + $2, last_error = '', last_error_at = NULL
WHERE id = $3`
	_, err := s.db.ExecContext(ctx, query, fetchedAt, articlesProcessed, feedID)
	if err != nil {
		return &entity.StoreError{Op: "RecordFetchOutcome", Err: err}
	}
	return nil
}
