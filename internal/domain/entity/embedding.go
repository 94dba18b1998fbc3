package entity

import "time"

// Embedding is a cached dense vector for an article, produced by the
// embedding adapter and TTL-expired by the store after EmbeddingTTL.
type Embedding struct {
	ArticleID  int64
	Vector     []float32
	Model      string
	TextLength int
	CreatedAt  time.Time
}
