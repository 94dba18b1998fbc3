package dedup

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/domain/similarity"
	"catchup-feed/internal/repository"
)

// Engine is the dedup worker: a single-consumer queue in front of the
// candidate-retrieval + scoring + cluster-maintenance pipeline, matching
// the teacher's infra/worker single-goroutine batch-drain shape: Engine.run
// processes its own queue sequentially rather than fanning out over feeds.
type Engine struct {
	store     repository.Store
	cfg       Config
	embedder  EmbeddingProvider // nil disables semantic_sim
	validator Validator         // nil disables LLM borderline validation
	metrics   *Metrics
	alertHook AlertHook

	queue chan queuedArticle
	done  chan struct{}
}

type queuedArticle struct {
	article *entity.Article
	attempt int
}

// New constructs an Engine. embedder and validator may be nil; alertHook
// must be set via SetAlertHook before Start if alert dispatch is wired.
func New(store repository.Store, cfg Config, embedder EmbeddingProvider, validator Validator, metrics *Metrics) *Engine {
	return &Engine{
		store:     store,
		cfg:       cfg,
		embedder:  embedder,
		validator: validator,
		metrics:   metrics,
		queue:     make(chan queuedArticle, cfg.QueueCapacity),
		done:      make(chan struct{}),
	}
}

// SetAlertHook wires the alert dispatcher. Must be called before Start.
func (e *Engine) SetAlertHook(hook AlertHook) {
	e.alertHook = hook
}

// Enqueue implements ingest.DedupHook. It applies backpressure: if the
// queue is full, it blocks until space frees up or ctx is cancelled, in
// which case the article is dropped and logged (the ingest cycle must not
// hang waiting on dedup).
func (e *Engine) Enqueue(ctx context.Context, article *entity.Article) {
	select {
	case e.queue <- queuedArticle{article: article, attempt: 0}:
	case <-ctx.Done():
		slog.Warn("dedup enqueue dropped: context cancelled", slog.Int64("article_id", article.ID))
	}
}

// Start launches the worker goroutine. Stop via Close.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
}

// Close signals the worker to drain its current batch and exit, then waits
// for it to finish.
func (e *Engine) Close() {
	close(e.queue)
	<-e.done
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	batch := make([]queuedArticle, 0, e.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, qa := range batch {
			e.processOne(ctx, qa)
		}
		batch = batch[:0]
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case qa, ok := <-e.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, qa)
			if len(batch) >= e.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// processOne runs the full dedup pipeline for one article, re-enqueueing on
// transient failure up to cfg.MaxAttempts.
func (e *Engine) processOne(ctx context.Context, qa queuedArticle) {
	article := qa.article
	if err := e.evaluate(ctx, article); err != nil {
		qa.attempt++
		if qa.attempt >= e.cfg.MaxAttempts {
			slog.Error("dedup processing abandoned after max attempts",
				slog.Int64("article_id", article.ID), slog.Int("attempts", qa.attempt), slog.Any("error", err))
			if e.metrics != nil {
				e.metrics.RecordOutcome("abandoned")
			}
			return
		}
		slog.Warn("dedup processing failed, will retry",
			slog.Int64("article_id", article.ID), slog.Int("attempt", qa.attempt), slog.Any("error", err))
		select {
		case e.queue <- qa:
		default:
			slog.Error("dedup retry dropped: queue full", slog.Int64("article_id", article.ID))
		}
	}
}

// evaluate retrieves candidates within the configured window, scores the
// article against each, elects an original for any match found, updates (or
// creates) the covering cluster, records a DuplicateLink, and — if the
// article turns out unique — hands it to the alert hook.
func (e *Engine) evaluate(ctx context.Context, article *entity.Article) error {
	candidates, err := e.store.FindCandidateArticles(ctx, e.cfg.CandidateWindow, repository.CandidateFilters{
		Source:    article.Source,
		Category:  article.Category,
		Tags:      article.Tags,
		ExcludeID: article.ID,
	})
	if err != nil {
		return err
	}

	best, bestResult, matched := e.bestMatch(ctx, article, candidates)
	if !matched {
		if err := e.store.UpdateArticleFlags(ctx, article.ID, true, false, 0); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.RecordOutcome("unique")
		}
		if e.alertHook != nil {
			e.alertHook.Enqueue(ctx, article)
		}
		return nil
	}

	original, err := e.electOriginal(ctx, article, best)
	if err != nil {
		return err
	}
	duplicate := article
	if original.ID == article.ID {
		duplicate = best
	}

	if err := e.store.UpdateArticleFlags(ctx, duplicate.ID, true, true, original.ID); err != nil {
		return err
	}

	link := &entity.DuplicateLink{
		OriginalArticleID:  original.ID,
		DuplicateArticleID: duplicate.ID,
		SimilarityScore:    bestResult.Breakdown.Overall,
		DetectionMethod:    bestResult.Method,
		Breakdown:          bestResult.Breakdown,
		Metadata: entity.LinkMetadata{
			OriginalTitle:   original.Title,
			DuplicateTitle:  duplicate.Title,
			OriginalSource:  original.Source,
			DuplicateSource: duplicate.Source,
			DeltaTime:       duplicate.PublishedAt.Sub(original.PublishedAt),
		},
	}
	if err := e.store.PutDuplicateLink(ctx, link); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordOutcome("duplicate")
		e.metrics.RecordMethod(string(bestResult.Method))
	}

	return e.updateCluster(ctx, original, duplicate)
}

// bestMatch scores article against every candidate, returning the
// highest-overall match that clears its method's threshold. Candidates that
// CheapDiscard rules out are skipped before any embedding lookup.
func (e *Engine) bestMatch(ctx context.Context, article *entity.Article, candidates []*entity.Article) (*entity.Article, similarity.Result, bool) {
	var (
		best       *entity.Article
		bestResult similarity.Result
		found      bool
	)

	for _, candidate := range candidates {
		if similarity.CheapDiscard(article, candidate, e.cfg.Similarity) {
			continue
		}

		result := e.scoreCandidate(ctx, article, candidate)
		if !result.IsMatch {
			continue
		}

		if result.Breakdown.Overall >= e.cfg.BorderlineLow && result.Breakdown.Overall < e.cfg.BorderlineHigh && e.validator != nil {
			verdict, err := e.validator.ValidateDuplicate(ctx, article, candidate)
			if err != nil {
				slog.Warn("llm duplicate validation failed, keeping lexical verdict",
					slog.Int64("article_id", article.ID), slog.Int64("candidate_id", candidate.ID), slog.Any("error", err))
			} else {
				result.Breakdown.LLMConfirmed = verdict.IsDuplicate
				result.Breakdown.LLMConfidence = verdict.Confidence
				result.Breakdown.LLMReasoning = verdict.Reasoning
				if !verdict.IsDuplicate {
					continue
				}
			}
		}

		if !found || result.Breakdown.Overall > bestResult.Breakdown.Overall {
			best = candidate
			bestResult = result
			found = true
		}
	}

	return best, bestResult, found
}

// scoreCandidate computes semantic_sim via the embedding provider when
// enabled, falling back to lexical-only scoring on any provider error.
func (e *Engine) scoreCandidate(ctx context.Context, article, candidate *entity.Article) similarity.Result {
	if !e.cfg.SemanticValidationEnabled || e.embedder == nil {
		return similarity.Score(article, candidate, e.cfg.Similarity)
	}

	semanticSim, err := e.cosineSimilarity(ctx, article, candidate)
	if err != nil {
		slog.Debug("semantic similarity unavailable, scoring without it",
			slog.Int64("article_id", article.ID), slog.Int64("candidate_id", candidate.ID), slog.Any("error", err))
		return similarity.Score(article, candidate, e.cfg.Similarity)
	}
	return similarity.ScoreWithSemantic(article, candidate, semanticSim, e.cfg.Similarity)
}

func (e *Engine) cosineSimilarity(ctx context.Context, article, candidate *entity.Article) (float64, error) {
	av, err := e.vectorFor(ctx, article)
	if err != nil {
		return 0, err
	}
	cv, err := e.vectorFor(ctx, candidate)
	if err != nil {
		return 0, err
	}
	return cosine(av, cv), nil
}

// vectorFor resolves an article's embedding, computing and persisting one
// on first access.
func (e *Engine) vectorFor(ctx context.Context, article *entity.Article) ([]float32, error) {
	existing, err := e.store.FindEmbeddingByArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing.Vector, nil
	}

	text := article.Title + " " + article.Content
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	emb := &entity.Embedding{
		ArticleID:  article.ID,
		Vector:     vector,
		TextLength: len(text),
		CreatedAt:  time.Now(),
	}
	if err := e.store.PutEmbedding(ctx, emb); err != nil {
		slog.Warn("failed to persist embedding", slog.Int64("article_id", article.ID), slog.Any("error", err))
	}
	return vector, nil
}

// cosine computes cosine similarity between two equal-length vectors,
// returning 0 for mismatched or zero-magnitude inputs. No vector-math
// library appears anywhere in the retrieval pack for in-process similarity
// (pgvector's operators run inside postgres, not on Go-side slices), so this
// stays on plain arithmetic like internal/domain/similarity's TF-IDF cosine.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (sqrt(magA) * sqrt(magB))
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// electOriginal returns whichever of (article, candidate) has the earlier
// PublishedAt, per the cluster invariant that the original anchors the
// story's canonical timestamp. Ties favor the already-persisted candidate,
// since article is still pending its own flag update.
func (e *Engine) electOriginal(ctx context.Context, article, candidate *entity.Article) (*entity.Article, error) {
	if article.PublishedAt.Before(candidate.PublishedAt) {
		return article, nil
	}
	return candidate, nil
}

// updateCluster folds duplicate into original's cluster, creating one if
// original does not yet belong to any, and recomputes the centroid.
func (e *Engine) updateCluster(ctx context.Context, original, duplicate *entity.Article) error {
	cluster, err := e.store.FindClusterByArticle(ctx, original.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	if cluster == nil {
		cluster = &entity.Cluster{
			ArticleIDs: []int64{original.ID},
			Category:   original.Category,
			CreatedAt:  now,
		}
	}
	if !containsID(cluster.ArticleIDs, duplicate.ID) {
		cluster.ArticleIDs = append(cluster.ArticleIDs, duplicate.ID)
	}
	cluster.UpdatedAt = now
	cluster.Sources = mergeUnique(cluster.Sources, original.Source, duplicate.Source)
	cluster.Tags = mergeUnique(cluster.Tags, original.Tags...)
	cluster.Tags = mergeUnique(cluster.Tags, duplicate.Tags...)

	members, err := e.loadMembers(ctx, cluster.ArticleIDs)
	if err != nil {
		return err
	}
	cluster.Centroid = computeCentroid(members)

	if cluster.ID == 0 {
		return e.store.PutCluster(ctx, cluster)
	}
	return e.store.UpdateCluster(ctx, cluster)
}

func (e *Engine) loadMembers(ctx context.Context, ids []int64) ([]*entity.Article, error) {
	members := make([]*entity.Article, 0, len(ids))
	for _, id := range ids {
		a, err := e.store.GetArticle(ctx, id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			members = append(members, a)
		}
	}
	return members, nil
}

func computeCentroid(members []*entity.Article) entity.Centroid {
	c := entity.Centroid{
		Categories:   map[string]int{},
		Tags:         map[string]int{},
		SourceCounts: map[string]int{},
	}
	if len(members) == 0 {
		return c
	}

	var wordTotal, entityTotal int
	var publishSum int64
	for _, a := range members {
		wordTotal += len(a.Content) / 6 // rough token estimate, matches entityextract's heuristic register
		entityTotal += len(a.Entities)
		publishSum += a.PublishedAt.Unix()
		c.Categories[a.Category]++
		c.SourceCounts[a.Source]++
		for _, t := range a.Tags {
			c.Tags[t]++
		}
	}
	n := float64(len(members))
	c.AvgWordCount = float64(wordTotal) / n
	c.AvgEntityCount = float64(entityTotal) / n
	c.MeanPublishAt = time.Unix(publishSum/int64(len(members)), 0).UTC()
	return c
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func mergeUnique(existing []string, values ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(values))
	for _, v := range existing {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
