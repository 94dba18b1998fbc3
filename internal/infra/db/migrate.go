package db

import "database/sql"

// MigrateUp creates the seven logical collections the Store Interface
// persists to (articles, duplicate_links, clusters, embeddings, alerts,
// feeds, metrics) plus the indexes their query paths require. Every
// statement is idempotent so MigrateUp is safe to run on every startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id                 SERIAL PRIMARY KEY,
    name               TEXT NOT NULL,
    url                TEXT NOT NULL UNIQUE,
    category           TEXT NOT NULL DEFAULT '',
    priority           TEXT NOT NULL DEFAULT 'medium',
    enabled            BOOLEAN NOT NULL DEFAULT TRUE,
    tags               TEXT NOT NULL DEFAULT '',
    last_fetched_at    TIMESTAMPTZ,
    articles_processed BIGINT NOT NULL DEFAULT 0,
    error_count        BIGINT NOT NULL DEFAULT 0,
    last_error         TEXT NOT NULL DEFAULT '',
    last_error_at      TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id                  SERIAL PRIMARY KEY,
    url                 TEXT NOT NULL UNIQUE,
    content_hash        TEXT NOT NULL,
    title               TEXT NOT NULL,
    summary             TEXT NOT NULL DEFAULT '',
    content             TEXT NOT NULL DEFAULT '',
    source              TEXT NOT NULL DEFAULT '',
    source_id           BIGINT NOT NULL DEFAULT 0,
    category            TEXT NOT NULL DEFAULT '',
    tags                TEXT NOT NULL DEFAULT '',
    priority            TEXT NOT NULL DEFAULT 'medium',
    published_at        TIMESTAMPTZ NOT NULL,
    fetched_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    author              TEXT NOT NULL DEFAULT '',
    image_url           TEXT NOT NULL DEFAULT '',
    language             TEXT NOT NULL DEFAULT '',
    entities            JSONB NOT NULL DEFAULT '[]',
    duplicate_checked   BOOLEAN NOT NULL DEFAULT FALSE,
    is_duplicate        BOOLEAN NOT NULL DEFAULT FALSE,
    original_article_id BIGINT,
    processed_at        TIMESTAMPTZ,
    alert_sent          BOOLEAN NOT NULL DEFAULT FALSE,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS duplicate_links (
    id                   SERIAL PRIMARY KEY,
    original_article_id  BIGINT NOT NULL REFERENCES articles(id),
    duplicate_article_id BIGINT NOT NULL REFERENCES articles(id),
    similarity_score     DOUBLE PRECISION NOT NULL,
    detection_method     TEXT NOT NULL,
    content_hash_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
    title_sim            DOUBLE PRECISION NOT NULL DEFAULT 0,
    content_sim          DOUBLE PRECISION NOT NULL DEFAULT 0,
    entity_sim           DOUBLE PRECISION NOT NULL DEFAULT 0,
    semantic_sim         DOUBLE PRECISION NOT NULL DEFAULT 0,
    temporal_prox        DOUBLE PRECISION NOT NULL DEFAULT 0,
    source_align         DOUBLE PRECISION NOT NULL DEFAULT 0,
    llm_confirmed        BOOLEAN NOT NULL DEFAULT FALSE,
    llm_confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
    llm_reasoning        TEXT NOT NULL DEFAULT '',
    original_title       TEXT NOT NULL DEFAULT '',
    duplicate_title      TEXT NOT NULL DEFAULT '',
    original_source      TEXT NOT NULL DEFAULT '',
    duplicate_source     TEXT NOT NULL DEFAULT '',
    delta_time_seconds   DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE(original_article_id, duplicate_article_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS clusters (
    id          SERIAL PRIMARY KEY,
    article_ids TEXT NOT NULL DEFAULT '',
    centroid    JSONB NOT NULL DEFAULT '{}',
    category    TEXT NOT NULL DEFAULT '',
    tags        TEXT NOT NULL DEFAULT '',
    sources     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS alerts (
    id           SERIAL PRIMARY KEY,
    article_id   BIGINT NOT NULL REFERENCES articles(id),
    title        TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    source       TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    priority     TEXT NOT NULL DEFAULT 'low',
    url          TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ NOT NULL,
    entities     JSONB NOT NULL DEFAULT '[]',
    tags         TEXT NOT NULL DEFAULT '',
    channels     TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'pending',
    results      JSONB NOT NULL DEFAULT '[]',
    resend_count INT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    sent_at      TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS metrics (
    id          SERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    value       DOUBLE PRECISION NOT NULL,
    labels      JSONB NOT NULL DEFAULT '{}',
    recorded_at TIMESTAMPTZ NOT NULL
)`); err != nil {
		return err
	}

	// pgvector extension backs the embeddings table's nearest-neighbor
	// search path; ignored if already present or the role lacks
	// CREATE EXTENSION privilege (managed separately by the operator).
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS embeddings (
    article_id  BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    embedding   vector(1536) NOT NULL,
    model       TEXT NOT NULL,
    text_length INT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE(article_id, model)
)`); err != nil {
		return err
	}

	// pg_trgm backs the ILIKE-based admin search path over title/content.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source_published ON articles(source, published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_category_published ON articles(category, published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_content_hash ON articles(content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_duplicate_links_duplicate ON duplicate_links(duplicate_article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts(category, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_enabled ON feeds(enabled) WHERE enabled = TRUE`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// full-text search GIN indexes; ignored individually since pg_trgm
	// may be unavailable in a restricted deployment.
	searchIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_title_gin ON articles USING gin(title gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_content_gin ON articles USING gin(content gin_trgm_ops)`,
	}
	for _, idx := range searchIndexes {
		_, _ = db.Exec(idx)
	}

	// vector similarity index; ignored if pgvector is unavailable.
	_, _ = db.Exec(`
CREATE INDEX IF NOT EXISTS idx_embeddings_vector
    ON embeddings USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100)`)

	return nil
}

// MigrateDown drops the embeddings table and its indexes, the narrowest
// reversible step; the remaining collections hold primary operational
// state and are never dropped by an automated rollback.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_embeddings_vector`,
		`DROP TABLE IF EXISTS embeddings CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
