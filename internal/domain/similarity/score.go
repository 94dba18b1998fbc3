package similarity

import (
	"catchup-feed/internal/domain/entity"
)

// Weights are the three configurable named weights. They must sum to 1.0;
// Validate enforces that at load time.
type Weights struct {
	Title   float64
	Content float64
	Entity  float64
}

// DefaultWeights mirrors the spec's documented defaults.
func DefaultWeights() Weights {
	return Weights{Title: 0.4, Content: 0.4, Entity: 0.2}
}

// Validate checks the three named weights sum to 1.0 within a small
// floating-point tolerance.
func (w Weights) Validate() error {
	sum := w.Title + w.Content + w.Entity
	if sum < 0.999 || sum > 1.001 {
		return &entity.ValidationError{
			Field:   "similarity_weights",
			Message: "title+content+entity weights must sum to 1.0",
		}
	}
	return nil
}

// fixed (non-configurable) weights for the three signals that always
// participate at the same strength, per the spec's combiner formula.
const (
	semanticWeight = 0.30
	temporalWeight = 0.10
	sourceWeight   = 0.10
)

// Config bundles every knob the scorer needs.
type Config struct {
	Weights          Weights
	TFIDF            TFIDFConfig
	ContentThreshold float64 // configured_similarity_threshold, default 0.85
	DiscardBelow     float64 // candidates below this overall score are discarded cheaply, default 0.3
}

// DefaultConfig mirrors the documented defaults.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		TFIDF:            DefaultTFIDFConfig(),
		ContentThreshold: 0.85,
		DiscardBelow:     0.3,
	}
}

// Result is the full scoring outcome for one candidate pair.
type Result struct {
	Breakdown entity.SimilarityBreakdown
	Method    entity.DetectionMethod
	Threshold float64
	IsMatch   bool
}

// Score computes every independent signal for (article, candidate) and
// combines them into an overall score, selecting the primary method and
// applying its threshold. article is the newly-arrived item; candidate is
// a previously-stored article being compared against.
func Score(article, candidate *entity.Article, cfg Config) Result {
	if article.ContentHash != "" && article.ContentHash == candidate.ContentHash {
		b := entity.SimilarityBreakdown{ContentHash: 1.0, Overall: 1.0}
		return Result{
			Breakdown: b,
			Method:    entity.MethodContentHash,
			Threshold: entity.MethodContentHash.Threshold(cfg.ContentThreshold),
			IsMatch:   true,
		}
	}

	titleSim := TitleSim(article.Title, candidate.Title)
	contentSim := ContentSim(article.Content+" "+article.Summary, candidate.Content+" "+candidate.Summary, cfg.TFIDF)
	entitySim := EntitySim(article, candidate)
	temporalProx := TemporalProx(article.PublishedAt, candidate.PublishedAt)
	sourceAlign := SourceAlign(article, candidate)

	// semantic_sim is supplied by the caller (it requires an async
	// embedding lookup); callers that haven't computed it yet should call
	// ScoreWithSemantic once they have.
	return scoreFrom(entity.SimilarityBreakdown{
		TitleSim:     titleSim,
		ContentSim:   contentSim,
		EntitySim:    entitySim,
		TemporalProx: temporalProx,
		SourceAlign:  sourceAlign,
	}, cfg)
}

// ScoreWithSemantic is Score plus a precomputed semantic_sim signal
// (cosine of embeddings), used once the caller has resolved vectors for
// both articles.
func ScoreWithSemantic(article, candidate *entity.Article, semanticSim float64, cfg Config) Result {
	if article.ContentHash != "" && article.ContentHash == candidate.ContentHash {
		b := entity.SimilarityBreakdown{ContentHash: 1.0, Overall: 1.0}
		return Result{
			Breakdown: b,
			Method:    entity.MethodContentHash,
			Threshold: entity.MethodContentHash.Threshold(cfg.ContentThreshold),
			IsMatch:   true,
		}
	}

	b := entity.SimilarityBreakdown{
		TitleSim:     TitleSim(article.Title, candidate.Title),
		ContentSim:   ContentSim(article.Content+" "+article.Summary, candidate.Content+" "+candidate.Summary, cfg.TFIDF),
		EntitySim:    EntitySim(article, candidate),
		SemanticSim:  semanticSim,
		TemporalProx: TemporalProx(article.PublishedAt, candidate.PublishedAt),
		SourceAlign:  SourceAlign(article, candidate),
	}
	return scoreFrom(b, cfg)
}

func scoreFrom(b entity.SimilarityBreakdown, cfg Config) Result {
	w := cfg.Weights
	overall := w.Title*b.TitleSim + w.Content*b.ContentSim + w.Entity*b.EntitySim +
		semanticWeight*b.SemanticSim + temporalWeight*b.TemporalProx + sourceWeight*b.SourceAlign
	b.Overall = overall

	method := primaryMethod(b)
	threshold := method.Threshold(cfg.ContentThreshold)

	return Result{
		Breakdown: b,
		Method:    method,
		Threshold: threshold,
		IsMatch:   overall >= threshold,
	}
}

// CheapDiscard reports whether a candidate's cheaply-computed signals (no
// semantic_sim yet) already fall far enough below cfg.DiscardBelow that the
// pair can be dropped before paying for an embedding lookup.
func CheapDiscard(article, candidate *entity.Article, cfg Config) bool {
	if article.ContentHash != "" && article.ContentHash == candidate.ContentHash {
		return false
	}
	w := cfg.Weights
	titleSim := TitleSim(article.Title, candidate.Title)
	contentSim := ContentSim(article.Content+" "+article.Summary, candidate.Content+" "+candidate.Summary, cfg.TFIDF)
	entitySim := EntitySim(article, candidate)
	temporalProx := TemporalProx(article.PublishedAt, candidate.PublishedAt)
	sourceAlign := SourceAlign(article, candidate)

	// upper bound on overall: assume semantic_sim maxes out at 1.0
	ceiling := w.Title*titleSim + w.Content*contentSim + w.Entity*entitySim +
		semanticWeight*1.0 + temporalWeight*temporalProx + sourceWeight*sourceAlign
	return ceiling < cfg.DiscardBelow
}

// primaryMethod picks the highest-precedence signal that dominates the
// decision: content_hash is handled by the caller before this is reached,
// so here the order is title >= 0.9, semantic >= 0.85, entity >= 0.8,
// otherwise content_similarity.
func primaryMethod(b entity.SimilarityBreakdown) entity.DetectionMethod {
	switch {
	case b.TitleSim >= 0.9:
		return entity.MethodTitleSimilarity
	case b.SemanticSim >= 0.85:
		return entity.MethodSemanticSimilarity
	case b.EntitySim >= 0.8:
		return entity.MethodEntitySimilarity
	default:
		return entity.MethodContentSimilarity
	}
}
