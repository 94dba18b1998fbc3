package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// entitiesJSON/tagsCSV are the on-disk encodings for the variable-length
// fields of an article. Tags are comma-delimited (wrapped in leading and
// trailing commas so a LIKE '%,tag,%' match never false-positives on a
// substring of a longer tag) rather than a native array column, avoiding a
// dependency on an array-binding driver extension the module does not
// carry. Entities are JSON, matching the teacher's general practice of
// storing structured sub-documents as jsonb (see article_embeddings usage
// of typed columns) while keeping the binding path to plain database/sql
// parameters.
func tagsToCSV(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

func csvToTags(csv string) []string {
	csv = strings.Trim(csv, ",")
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}

func entitiesToJSON(entities []entity.NamedEntity) ([]byte, error) {
	if len(entities) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(entities)
}

func jsonToEntities(data []byte) ([]entity.NamedEntity, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entities []entity.NamedEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return entities, nil
}

func scanArticle(row interface{ Scan(...any) error }) (*entity.Article, error) {
	var a entity.Article
	var tagsCSV string
	var entitiesRaw []byte
	var processedAt sql.NullTime
	var originalID sql.NullInt64

	err := row.Scan(
		&a.ID, &a.URL, &a.ContentHash, &a.Title, &a.Summary, &a.Content,
		&a.Source, &a.SourceID, &a.Category, &tagsCSV, &a.Priority,
		&a.PublishedAt, &a.FetchedAt, &a.Author, &a.ImageURL, &a.Language,
		&entitiesRaw, &a.DuplicateChecked, &a.IsDuplicate, &originalID,
		&processedAt, &a.AlertSent, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.Tags = csvToTags(tagsCSV)
	entities, err := jsonToEntities(entitiesRaw)
	if err != nil {
		return nil, err
	}
	a.Entities = entities
	if originalID.Valid {
		a.OriginalArticleID = originalID.Int64
	}
	if processedAt.Valid {
		t := processedAt.Time
		a.ProcessedAt = &t
	}
	return &a, nil
}

const articleColumns = `
	id, url, content_hash, title, summary, content,
	source, source_id, category, tags, priority,
	published_at, fetched_at, author, image_url, language,
	entities, duplicate_checked, is_duplicate, original_article_id,
	processed_at, alert_sent, created_at`

func (s *Store) PutArticle(ctx context.Context, a *entity.Article) error {
	entitiesRaw, err := entitiesToJSON(a.Entities)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO articles (
	url, content_hash, title, summary, content,
	source, source_id, category, tags, priority,
	published_at, fetched_at, author, image_url, language,
	entities, duplicate_checked, is_duplicate, original_article_id,
	alert_sent, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
RETURNING id, created_at`

	var originalID any
	if a.OriginalArticleID != 0 {
		originalID = a.OriginalArticleID
	}

	err = s.db.QueryRowContext(ctx, query,
		a.URL, a.ContentHash, a.Title, a.Summary, a.Content,
		a.Source, a.SourceID, a.Category, tagsToCSV(a.Tags), a.Priority,
		a.PublishedAt, a.FetchedAt, a.Author, a.ImageURL, a.Language,
		entitiesRaw, a.DuplicateChecked, a.IsDuplicate, originalID,
		a.AlertSent, a.CreatedAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return &entity.StoreError{Op: "PutArticle", Err: err}
	}
	return nil
}

func (s *Store) FindArticleByURL(ctx context.Context, url string) (*entity.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE url = $1 LIMIT 1`, articleColumns)
	row := s.db.QueryRowContext(ctx, query, url)
	article, err := scanArticle(row)
	if err != nil {
		return nil, &entity.StoreError{Op: "FindArticleByURL", Err: err}
	}
	return article, nil
}

func (s *Store) FindArticleByHash(ctx context.Context, hash string) (*entity.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE content_hash = $1 ORDER BY created_at ASC LIMIT 1`, articleColumns)
	row := s.db.QueryRowContext(ctx, query, hash)
	article, err := scanArticle(row)
	if err != nil {
		return nil, &entity.StoreError{Op: "FindArticleByHash", Err: err}
	}
	return article, nil
}

func (s *Store) GetArticle(ctx context.Context, id int64) (*entity.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id = $1 LIMIT 1`, articleColumns)
	row := s.db.QueryRowContext(ctx, query, id)
	article, err := scanArticle(row)
	if err != nil {
		return nil, &entity.StoreError{Op: "GetArticle", Err: err}
	}
	return article, nil
}

// FindCandidateArticles bounds cost in SQL (time window, exclusion, a
// cheap source/category match) and applies the tag-overlap portion of the
// filter in Go once rows are scanned, since tags are stored as a delimited
// string rather than a native array column.
func (s *Store) FindCandidateArticles(ctx context.Context, window time.Duration, filters repository.CandidateFilters) ([]*entity.Article, error) {
	cutoff := time.Now().Add(-window)
	query := fmt.Sprintf(`
SELECT %s FROM articles
WHERE published_at >= $1 AND id != $2 AND (source = $3 OR category = $4)
ORDER BY published_at DESC
LIMIT 200`, articleColumns)

	rows, err := s.db.QueryContext(ctx, query, cutoff, filters.ExcludeID, filters.Source, filters.Category)
	if err != nil {
		return nil, &entity.StoreError{Op: "FindCandidateArticles", Err: err}
	}
	defer func() { _ = rows.Close() }()

	wantTags := make(map[string]struct{}, len(filters.Tags))
	for _, t := range filters.Tags {
		wantTags[t] = struct{}{}
	}

	candidates := make([]*entity.Article, 0, 50)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, &entity.StoreError{Op: "FindCandidateArticles", Err: err}
		}
		if article == nil {
			continue
		}
		sharesTag := false
		for _, t := range article.Tags {
			if _, ok := wantTags[t]; ok {
				sharesTag = true
				break
			}
		}
		matches := article.Source == filters.Source || article.Category == filters.Category || sharesTag
		if !matches {
			continue
		}
		candidates = append(candidates, article)
		if len(candidates) >= 50 {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &entity.StoreError{Op: "FindCandidateArticles", Err: err}
	}
	return candidates, nil
}

func (s *Store) UpdateArticleFlags(ctx context.Context, articleID int64, duplicateChecked, isDuplicate bool, originalArticleID int64) error {
	const query = `
UPDATE articles SET duplicate_checked = $1, is_duplicate = $2, original_article_id = $3, processed_at = now()
WHERE id = $4`
	var originalID any
	if originalArticleID != 0 {
		originalID = originalArticleID
	}
	_, err := s.db.ExecContext(ctx, query, duplicateChecked, isDuplicate, originalID, articleID)
	if err != nil {
		return &entity.StoreError{Op: "UpdateArticleFlags", Err: err}
	}
	return nil
}

func (s *Store) MarkAlertSent(ctx context.Context, articleID int64) error {
	const query = `UPDATE articles SET alert_sent = true WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, articleID)
	if err != nil {
		return &entity.StoreError{Op: "MarkAlertSent", Err: err}
	}
	return nil
}

func (s *Store) SearchArticles(ctx context.Context, keyword string, limit int) ([]*entity.Article, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
SELECT %s FROM articles
WHERE title ILIKE $1 OR content ILIKE $1 OR summary ILIKE $1 OR entities::text ILIKE $1
ORDER BY published_at DESC
LIMIT $2`, articleColumns)
	rows, err := s.db.QueryContext(ctx, query, "%"+keyword+"%", limit)
	if err != nil {
		return nil, &entity.StoreError{Op: "SearchArticles", Err: err}
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, &entity.StoreError{Op: "SearchArticles", Err: err}
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}
