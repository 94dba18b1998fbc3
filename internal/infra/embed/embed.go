// Package embed provides embedding-vector and LLM-validation adapters for
// the dedup engine's semantic_sim signal: circuit breaker, retry,
// structured logging, and Prometheus metrics wrapping the OpenAI embeddings
// API and the Claude duplicate-validation API.
package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// Config holds the embedding provider's tunables, part of spec 6's
// configuration surface ("embedding model identifier", "vector dimension").
type Config struct {
	Model     string
	Dimension int
	Timeout   time.Duration
	CacheSize int
}

// DefaultConfig mirrors the summarizer's 900-char/60s-timeout defaults,
// scaled to embeddings: a smaller timeout (embedding calls are cheaper than
// chat completions) and a fixed default dimension matching OpenAI's
// text-embedding-3-small.
func DefaultConfig() Config {
	return Config{
		Model:     "text-embedding-3-small",
		Dimension: 1536,
		Timeout:   20 * time.Second,
		CacheSize: 2048,
	}
}

// Provider produces embeddings with circuit-breaker and retry protection
// plus a bounded LRU cache, falling back to a deterministic pseudo-vector
// (never an error) when the underlying client is nil or exhausts retries —
// the dedup engine must keep scoring on lexical signals even with no
// embedding backend configured.
type Provider struct {
	client         EmbeddingClient
	cfg            Config
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	cache          *lruCache
	metrics        *Metrics
}

// EmbeddingClient is the narrow surface Provider needs from an embeddings
// API client (OpenAI's being the only one currently wired).
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, model string, text string) ([]float32, error)
}

// NewProvider constructs a Provider. client may be nil, in which case every
// call resolves to the deterministic fallback vector.
func NewProvider(client EmbeddingClient, cfg Config, metrics *Metrics) *Provider {
	return &Provider{
		client:         client,
		cfg:            cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.EmbeddingAPIConfig()),
		retryConfig:    retry.EmbeddingAPIConfig(),
		cache:          newLRUCache(cfg.CacheSize),
		metrics:        metrics,
	}
}

// Embed implements dedup.EmbeddingProvider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(p.cfg.Model, text)
	if v, ok := p.cache.get(key); ok {
		if p.metrics != nil {
			p.metrics.RecordCache("hit")
		}
		return v, nil
	}
	if p.metrics != nil {
		p.metrics.RecordCache("miss")
	}

	if p.client == nil {
		vec := fallbackVector(text, p.cfg.Dimension)
		p.cache.put(key, vec)
		return vec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var vector []float32
	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.client.CreateEmbedding(ctx, p.cfg.Model, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("embedding api circuit breaker open, request rejected",
					slog.String("service", "embedding-api"),
					slog.String("state", p.circuitBreaker.State().String()))
			}
			return err
		}
		vector = cbResult.([]float32)
		return nil
	})

	if retryErr != nil {
		slog.Warn("embedding api failed after retries, using deterministic fallback vector",
			slog.Any("error", retryErr))
		if p.metrics != nil {
			p.metrics.RecordFallback()
		}
		vector = fallbackVector(text, p.cfg.Dimension)
	}

	p.cache.put(key, vector)
	return vector, nil
}

// fallbackVector deterministically derives a unit-ish pseudo-vector from a
// SHA-256 stream of the text, so that identical text always yields the same
// vector (keeping cosine-similarity comparisons stable) without ever
// calling out to a provider. Spec 4.E requires embeddings to degrade
// gracefully rather than disable semantic_sim outright.
func fallbackVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 1536
	}
	vec := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))
	state := binary.BigEndian.Uint64(seed[:8])
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407 // splitmix64 step
		// map to [-1, 1]
		vec[i] = float32(int64(state>>11))/float32(1<<52) - 1
	}
	return vec
}

func cacheKey(model, text string) string {
	return fmt.Sprintf("%s:%x", model, sha256.Sum256([]byte(text)))
}
