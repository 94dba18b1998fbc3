package ingest

import (
	"time"

	"catchup-feed/internal/domain/normalize"
)

// Config bundles every knob the scheduler, fetcher and normalizer stages
// need. Loaded by internal/config and validated there; Config itself only
// carries the defaults, matching the teacher's worker.WorkerConfig shape.
type Config struct {
	// CronSchedule drives the scheduler tick, default every 5 minutes.
	CronSchedule string
	Timezone     string

	// FetchTimeout bounds a single feed HTTP request, default 30s.
	FetchTimeout time.Duration
	// MaxRedirects bounds redirect-following during a feed fetch, default 3.
	MaxRedirects int
	// MaxConcurrentFeeds bounds the scheduler's per-cycle fan-out, default 10.
	MaxConcurrentFeeds int

	// ContentFetchEnabled toggles optional full-page extraction.
	ContentFetchEnabled bool
	// ContentFetchThreshold is the minimum feed-provided content length
	// (runes) below which full-page extraction is attempted, default 1500.
	ContentFetchThreshold int

	// HashAlgorithm is the configurable content-fingerprint digest.
	HashAlgorithm normalize.HashAlgorithm
	// EntityTopN caps extracted entities per article, default 20.
	EntityTopN int

	// BatchSize is how many normalized articles the dedup handoff batches
	// together, default 50 (spec 4.D's batching, surfaced here since the
	// ingestor is what hands articles to the dedup queue).
	BatchSize int
}

// DefaultConfig mirrors the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		CronSchedule:          "*/5 * * * *",
		Timezone:              "UTC",
		FetchTimeout:          30 * time.Second,
		MaxRedirects:          3,
		MaxConcurrentFeeds:    10,
		ContentFetchEnabled:   true,
		ContentFetchThreshold: 1500,
		HashAlgorithm:         normalize.HashSHA256,
		EntityTopN:            20,
		BatchSize:             50,
	}
}
