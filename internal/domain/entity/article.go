// Package entity defines the core domain entities and validation logic for the
// news deduplication and alerting pipeline: articles, duplicate links, clusters,
// embeddings, alerts and feed sources, along with their invariants and the
// domain-specific error taxonomy.
package entity

import (
	"strings"
	"time"
)

// NamedEntity is a single extracted entity mention with a confidence score.
type NamedEntity struct {
	Name       string
	Type       EntityType
	Confidence float64
}

// EntityType enumerates the kinds of entities the normalizer extracts.
type EntityType string

const (
	EntityPerson     EntityType = "person"
	EntityOrg        EntityType = "organization"
	EntityLocation   EntityType = "location"
	EntityMoney      EntityType = "money"
	EntityPercentage EntityType = "percentage"
	EntityDate       EntityType = "date"
	EntityTicker     EntityType = "ticker"
)

// Article is a normalized news item ingested from a feed.
//
// Lifecycle: created by the normalizer, mutated exactly once by the dedup
// engine to set the duplicate-check fields and cluster linkage, then never
// mutated again.
type Article struct {
	ID                int64
	URL               string
	ContentHash       string
	Title             string
	Summary           string
	Content           string // may be empty until full-page extraction runs
	Source            string // feed name
	SourceID          int64
	Category          string
	Tags              []string
	Priority          string
	PublishedAt       time.Time
	FetchedAt         time.Time
	Author            string
	ImageURL          string
	Language          string
	Entities          []NamedEntity
	DuplicateChecked  bool
	IsDuplicate       bool
	OriginalArticleID int64 // 0 means unset
	ProcessedAt       *time.Time
	AlertSent         bool
	CreatedAt         time.Time
}

// HasOriginal reports whether the article has an elected original linked.
func (a *Article) HasOriginal() bool {
	return a.OriginalArticleID != 0
}

// EntityNames returns the lowercased, deduplicated set of entity names on the
// article, used by entity_sim Jaccard scoring.
func (a *Article) EntityNames() map[string]struct{} {
	names := make(map[string]struct{}, len(a.Entities))
	for _, e := range a.Entities {
		names[strings.ToLower(e.Name)] = struct{}{}
	}
	return names
}
