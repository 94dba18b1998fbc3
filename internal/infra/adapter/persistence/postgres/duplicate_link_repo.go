package postgres

import (
	"context"
	"database/sql"
	"time"

	"catchup-feed/internal/domain/entity"
)

func (s *Store) PutDuplicateLink(ctx context.Context, link *entity.DuplicateLink) error {
	const query = `
INSERT INTO duplicate_links (
	original_article_id, duplicate_article_id, similarity_score, detection_method,
	content_hash_score, title_sim, content_sim, entity_sim, semantic_sim,
	temporal_prox, source_align, llm_confirmed, llm_confidence, llm_reasoning,
	original_title, duplicate_title, original_source, duplicate_source, delta_time_seconds,
	created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19, now())
ON CONFLICT (original_article_id, duplicate_article_id) DO NOTHING
RETURNING id, created_at`

	b := link.Breakdown
	m := link.Metadata
	err := s.db.QueryRowContext(ctx, query,
		link.OriginalArticleID, link.DuplicateArticleID, link.SimilarityScore, string(link.DetectionMethod),
		b.ContentHash, b.TitleSim, b.ContentSim, b.EntitySim, b.SemanticSim,
		b.TemporalProx, b.SourceAlign, b.LLMConfirmed, b.LLMConfidence, b.LLMReasoning,
		m.OriginalTitle, m.DuplicateTitle, m.OriginalSource, m.DuplicateSource, m.DeltaTime.Seconds(),
	).Scan(&link.ID, &link.CreatedAt)
	if err == sql.ErrNoRows {
		// ON CONFLICT DO NOTHING with no RETURNING row: link already existed
		return entity.ErrAlreadyDuplicate
	}
	if err != nil {
		return &entity.StoreError{Op: "PutDuplicateLink", Err: err}
	}
	return nil
}

func (s *Store) ListDuplicateLinks(ctx context.Context, limit int) ([]*entity.DuplicateLink, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, original_article_id, duplicate_article_id, similarity_score, detection_method,
	content_hash_score, title_sim, content_sim, entity_sim, semantic_sim,
	temporal_prox, source_align, llm_confirmed, llm_confidence, llm_reasoning,
	original_title, duplicate_title, original_source, duplicate_source, delta_time_seconds,
	created_at
FROM duplicate_links
ORDER BY created_at DESC
LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &entity.StoreError{Op: "ListDuplicateLinks", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var links []*entity.DuplicateLink
	for rows.Next() {
		var l entity.DuplicateLink
		var method string
		var deltaSeconds float64
		err := rows.Scan(
			&l.ID, &l.OriginalArticleID, &l.DuplicateArticleID, &l.SimilarityScore, &method,
			&l.Breakdown.ContentHash, &l.Breakdown.TitleSim, &l.Breakdown.ContentSim,
			&l.Breakdown.EntitySim, &l.Breakdown.SemanticSim, &l.Breakdown.TemporalProx,
			&l.Breakdown.SourceAlign, &l.Breakdown.LLMConfirmed, &l.Breakdown.LLMConfidence,
			&l.Breakdown.LLMReasoning, &l.Metadata.OriginalTitle, &l.Metadata.DuplicateTitle,
			&l.Metadata.OriginalSource, &l.Metadata.DuplicateSource, &deltaSeconds, &l.CreatedAt,
		)
		if err != nil {
			return nil, &entity.StoreError{Op: "ListDuplicateLinks", Err: err}
		}
		l.DetectionMethod = entity.DetectionMethod(method)
		l.Metadata.DeltaTime = time.Duration(deltaSeconds * float64(time.Second))
		l.Breakdown.Overall = l.SimilarityScore
		links = append(links, &l)
	}
	return links, rows.Err()
}
