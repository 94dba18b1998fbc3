package entity

import "time"

// Feed is an RSS/Atom source configuration with runtime crawl counters.
type Feed struct {
	ID                int64
	Name              string
	URL               string
	Category          string
	Priority          string
	Enabled           bool
	Tags              []string
	LastFetchedAt     *time.Time
	ArticlesProcessed int64
	ErrorCount        int64
	LastError         string
	LastErrorAt       *time.Time
}
