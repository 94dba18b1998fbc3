// Package scraper provides implementations for fetching RSS/Atom feeds.
// It uses the gofeed library to parse feed content with reliability patterns.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
	"catchup-feed/internal/usecase/ingest"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// RSSFetcher implements ingest.Fetcher using the gofeed library. It wraps
// every fetch in a circuit breaker and a fixed linear-backoff retry policy
// (3 attempts starting at 1s, per the ingestion pipeline's retry contract),
// and bounds redirects on the shared HTTP client.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates a new RSSFetcher. The client's CheckRedirect should
// already bound redirects (see NewFeedHTTPClient); NewRSSFetcher does not
// override it so callers can share one client across the scraper and the
// readability fetcher.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.DedupFeedFetchConfig(),
	}
}

// NewFeedHTTPClient builds an *http.Client configured per spec 4.B: a fixed
// user agent (set per-request, since gofeed drives the client directly),
// bounded redirects, and an overall timeout.
func NewFeedHTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Fetch retrieves and parses an RSS/Atom feed from the given URL, returning
// ingest.FeedItem values. Transport and 5xx failures are retried; a 4xx
// response is surfaced immediately (gofeed does not expose status codes
// directly, so this relies on retry.IsRetryable's network-error checks and
// the circuit breaker's own failure accounting).
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]ingest.FeedItem, error) {
	var items []ingest.FeedItem

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]ingest.FeedItem)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return items, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]ingest.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "CatchUpFeedBot/1.0"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ingest.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pubAt = *it.UpdatedParsed
		}

		content := it.Content
		if content == "" {
			content = it.Description
		}

		var author string
		if it.Author != nil {
			author = it.Author.Name
		} else if len(it.Authors) > 0 {
			author = it.Authors[0].Name
		}

		var imageURL string
		if it.Image != nil {
			imageURL = it.Image.URL
		}

		items = append(items, ingest.FeedItem{
			Title:       it.Title,
			URL:         it.Link,
			GUID:        it.GUID,
			Content:     content,
			Summary:     it.Description,
			Author:      author,
			ImageURL:    imageURL,
			PublishedAt: pubAt,
		})
	}

	return items, nil
}
