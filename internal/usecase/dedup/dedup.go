// Package dedup implements the near-duplicate detection engine (spec
// component D): candidate retrieval over a time window, multi-signal
// similarity scoring, optional borderline LLM validation, cluster
// maintenance and original-article election. It is pure domain orchestration
// over the Store Interface — no transport, no provider wiring lives here.
package dedup

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// EmbeddingProvider produces a dense vector for a piece of text, used to
// compute semantic_sim. Implemented by internal/infra/embed's adapters.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ValidationResult is the tolerant, narrow shape parsed from an LLM's
// borderline-duplicate judgment. Never shaped around the provider's raw
// response — see internal/infra/embed's tolerant JSON extractor.
type ValidationResult struct {
	IsDuplicate bool
	Confidence  float64
	Reasoning   string
}

// Validator poses a structured duplicate-comparison prompt to an LLM.
// Implemented by internal/infra/embed's adapters.
type Validator interface {
	ValidateDuplicate(ctx context.Context, a, b *entity.Article) (ValidationResult, error)
}

// AlertHook is called once per elected-original article (spec's
// unique_article_detected event). Implemented by
// internal/usecase/alert.Dispatcher.Enqueue.
type AlertHook interface {
	Enqueue(ctx context.Context, article *entity.Article)
}
