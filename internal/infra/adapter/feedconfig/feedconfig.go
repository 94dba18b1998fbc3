// Package feedconfig loads the feeds configuration document (spec §6)
// and syncs it into the Store Interface. The document format follows
// the teacher's own YAML config-file idiom (internal/config.SecurityConfig).
package feedconfig

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// FeedDef is one entry in the feeds document's `feeds:` list.
type FeedDef struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Category string   `yaml:"category"`
	Priority string   `yaml:"priority"`
	Enabled  bool     `yaml:"enabled"`
	Tags     []string `yaml:"tags"`
}

// GlobalSettings is the document's process-wide defaults block.
type GlobalSettings struct {
	RefreshIntervalMinutes int `yaml:"refresh_interval_minutes"`
	TimeoutSeconds         int `yaml:"timeout_seconds"`
	RetryAttempts          int `yaml:"retry_attempts"`
	RetryDelayMs           int `yaml:"retry_delay_ms"`
}

// Document is the parsed feeds configuration file.
type Document struct {
	Global GlobalSettings `yaml:"global"`
	Feeds  []FeedDef      `yaml:"feeds"`
}

// RefreshInterval returns Global.RefreshIntervalMinutes as a Duration,
// falling back to 5 minutes when unset.
func (d *Document) RefreshInterval() time.Duration {
	if d.Global.RefreshIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(d.Global.RefreshIntervalMinutes) * time.Minute
}

// Timeout returns Global.TimeoutSeconds as a Duration, falling back to 30s.
func (d *Document) Timeout() time.Duration {
	if d.Global.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.Global.TimeoutSeconds) * time.Second
}

// RetryDelay returns Global.RetryDelayMs as a Duration, falling back to 1s.
func (d *Document) RetryDelay() time.Duration {
	if d.Global.RetryDelayMs <= 0 {
		return time.Second
	}
	return time.Duration(d.Global.RetryDelayMs) * time.Millisecond
}

// Load reads and parses a feeds configuration file from path.
// The path is expected to come from a trusted source (CLI flag or
// hardcoded default), matching the teacher's LoadSecurityConfig contract.
func Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or deployment config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds config: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}

	if err := validate(&doc); err != nil {
		return nil, fmt.Errorf("feeds config validation failed: %w", err)
	}

	return &doc, nil
}

func validate(doc *Document) error {
	seen := make(map[string]struct{}, len(doc.Feeds))
	for _, f := range doc.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed %q: name is required", f.ID)
		}
		if err := entity.ValidateURL(f.URL); err != nil {
			return fmt.Errorf("feed %q: %w", f.ID, err)
		}
		if _, dup := seen[f.URL]; dup {
			return fmt.Errorf("feed %q: duplicate url %q", f.ID, f.URL)
		}
		seen[f.URL] = struct{}{}
	}
	return nil
}

// Sync upserts every feed definition in doc into store, matching existing
// feeds by URL (the store's unique key per spec §4.G). Feeds already
// present keep their runtime counters (ArticlesProcessed, ErrorCount,
// LastFetchedAt) untouched; only the config-carried fields are
// overwritten. Feeds present in the store but absent from doc are left
// alone — the document is additive, not authoritative for deletion,
// since removing a feed's crawl history is a deliberate operator action
// (DeleteFeed on the admin surface), not a side effect of a config reload.
func Sync(ctx context.Context, store repository.Store, doc *Document) (created, updated int, err error) {
	existing, err := store.ListFeeds(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list existing feeds: %w", err)
	}
	byURL := make(map[string]*entity.Feed, len(existing))
	for _, f := range existing {
		byURL[f.URL] = f
	}

	for _, def := range doc.Feeds {
		if cur, ok := byURL[def.URL]; ok {
			cur.Name = def.Name
			cur.Category = def.Category
			cur.Priority = def.Priority
			cur.Enabled = def.Enabled
			cur.Tags = def.Tags
			if err := store.UpdateFeed(ctx, cur); err != nil {
				return created, updated, fmt.Errorf("update feed %q: %w", def.Name, err)
			}
			updated++
			continue
		}

		nf := &entity.Feed{
			Name:     def.Name,
			URL:      def.URL,
			Category: def.Category,
			Priority: def.Priority,
			Enabled:  def.Enabled,
			Tags:     def.Tags,
		}
		if err := store.PutFeed(ctx, nf); err != nil {
			return created, updated, fmt.Errorf("create feed %q: %w", def.Name, err)
		}
		created++
	}

	return created, updated, nil
}
