package dedup

import (
	"time"

	"catchup-feed/internal/domain/similarity"
)

// Config holds the dedup engine's tunables, mirroring
// internal/usecase/ingest.Config's role as the env-sourced knob surface for
// this stage.
type Config struct {
	// Similarity carries the scoring weights and thresholds (content_threshold,
	// discard_below, TF-IDF vocab limits).
	Similarity similarity.Config

	// CandidateWindow bounds how far back FindCandidateArticles looks for
	// comparison articles (spec default 48h).
	CandidateWindow time.Duration

	// BatchSize caps how many queued articles are drained per processing
	// batch before the worker yields (spec default 50).
	BatchSize int

	// QueueCapacity bounds the in-memory backlog of articles awaiting dedup;
	// Enqueue blocks (honoring ctx) once full, applying backpressure to the
	// ingest stage.
	QueueCapacity int

	// MaxAttempts bounds how many times a batch item is retried after a
	// transient processing error (candidate lookup failure, provider error)
	// before it is logged and dropped (spec default 3).
	MaxAttempts int

	// SemanticValidationEnabled turns on embedding-based semantic_sim and, for
	// borderline scores, LLM cross-validation. Both require the respective
	// providers to be non-nil; if disabled, scoring runs on lexical signals
	// only (title_sim, content_sim, entity_sim, temporal_prox, source_align).
	SemanticValidationEnabled bool

	// BorderlineLow and BorderlineHigh bound the overall-score band in which
	// an LLM validator is consulted to break a tie (spec default 0.6-0.85).
	BorderlineLow  float64
	BorderlineHigh float64
}

// DefaultConfig returns the dedup engine's default tunables per spec 4.D.
func DefaultConfig() Config {
	return Config{
		Similarity:                similarity.DefaultConfig(),
		CandidateWindow:           48 * time.Hour,
		BatchSize:                 50,
		QueueCapacity:             500,
		MaxAttempts:               3,
		SemanticValidationEnabled: false,
		BorderlineLow:             0.6,
		BorderlineHigh:            0.85,
	}
}
