package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"catchup-feed/internal/domain/entity"
)

func channelsToCSV(channels []entity.Channel) string {
	strs := make([]string, len(channels))
	for i, c := range channels {
		strs[i] = string(c)
	}
	return tagsToCSV(strs)
}

func csvToChannels(csv string) []entity.Channel {
	strs := csvToTags(csv)
	channels := make([]entity.Channel, len(strs))
	for i, s := range strs {
		channels[i] = entity.Channel(s)
	}
	return channels
}

func (s *Store) PutAlert(ctx context.Context, a *entity.Alert) error {
	entitiesRaw, err := entitiesToJSON(a.Entities)
	if err != nil {
		return err
	}
	resultsRaw, err := json.Marshal(a.Results)
	if err != nil {
		return &entity.StoreError{Op: "PutAlert", Err: err}
	}
	const query = `
INSERT INTO alerts (
	article_id, title, summary, source, category, priority, url, published_at,
	entities, tags, channels, status, results, resend_count, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now())
RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, query,
		a.ArticleID, a.Title, a.Summary, a.Source, a.Category, string(a.Priority), a.URL, a.PublishedAt,
		entitiesRaw, tagsToCSV(a.Tags), channelsToCSV(a.Channels), string(a.Status), resultsRaw, a.ResendCount,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return &entity.StoreError{Op: "PutAlert", Err: err}
	}
	return nil
}

func (s *Store) UpdateAlertStatus(ctx context.Context, alertID int64, status entity.AlertStatus, results []entity.ChannelResult, sentAt *time.Time) error {
	resultsRaw, err := json.Marshal(results)
	if err != nil {
		return &entity.StoreError{Op: "UpdateAlertStatus", Err: err}
	}
	const query = `UPDATE alerts SET status = $1, results = $2, sent_at = $3 WHERE id = $4`
	var sentAtParam any
	if sentAt != nil {
		sentAtParam = *sentAt
	}
	_, err = s.db.ExecContext(ctx, query, string(status), resultsRaw, sentAtParam, alertID)
	if err != nil {
		return &entity.StoreError{Op: "UpdateAlertStatus", Err: err}
	}
	return nil
}

const alertColumns = `
	id, article_id, title, summary, source, category, priority, url, published_at,
	entities, tags, channels, status, results, resend_count, created_at, sent_at`

func scanAlert(row interface{ Scan(...any) error }) (*entity.Alert, error) {
	var a entity.Alert
	var priority, status, tagsCSV, channelsCSV string
	var entitiesRaw, resultsRaw []byte
	var sentAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.ArticleID, &a.Title, &a.Summary, &a.Source, &a.Category, &priority, &a.URL, &a.PublishedAt,
		&entitiesRaw, &tagsCSV, &channelsCSV, &status, &resultsRaw, &a.ResendCount, &a.CreatedAt, &sentAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	a.Priority = entity.Priority(priority)
	a.Status = entity.AlertStatus(status)
	a.Tags = csvToTags(tagsCSV)
	a.Channels = csvToChannels(channelsCSV)
	entities, err := jsonToEntities(entitiesRaw)
	if err != nil {
		return nil, err
	}
	a.Entities = entities
	if len(resultsRaw) > 0 {
		if err := json.Unmarshal(resultsRaw, &a.Results); err != nil {
			return nil, fmt.Errorf("scan alert results: %w", err)
		}
	}
	if sentAt.Valid {
		t := sentAt.Time
		a.SentAt = &t
	}
	return &a, nil
}

func (s *Store) ListRecentAlerts(ctx context.Context, window time.Duration, limit int) ([]*entity.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-window)
	query := fmt.Sprintf(`
SELECT %s FROM alerts
WHERE created_at >= $1
ORDER BY created_at DESC
LIMIT $2`, alertColumns)

	rows, err := s.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, &entity.StoreError{Op: "ListRecentAlerts", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var alerts []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, &entity.StoreError{Op: "ListRecentAlerts", Err: err}
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Store) CountAlertsSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM alerts WHERE created_at >= $1`
	var count int
	if err := s.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, &entity.StoreError{Op: "CountAlertsSince", Err: err}
	}
	return count, nil
}

func (s *Store) LastAlertForCategory(ctx context.Context, category string) (*entity.Alert, error) {
	query := fmt.Sprintf(`
SELECT %s FROM alerts
WHERE category = $1
ORDER BY created_at DESC
LIMIT 1`, alertColumns)
	a, err := scanAlert(s.db.QueryRowContext(ctx, query, category))
	if err != nil {
		return nil, &entity.StoreError{Op: "LastAlertForCategory", Err: err}
	}
	return a, nil
}
