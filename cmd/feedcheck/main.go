// feedcheck is a diagnostic CLI that exercises the same RSSFetcher the
// worker uses in production against one or all configured feeds, and
// reports which ones are healthy. Grounded on the teacher's
// scripts/diagnose_feeds.go, rewired onto this module's actual fetch and
// storage stack rather than its own hand-rolled HTTP/XML client and
// lib/pq connection.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"catchup-feed/internal/domain/entity"
	pgRepo "catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/infra/scraper"
)

// diagnostic is one feed's check result.
type diagnostic struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	ItemCount    int    `json:"item_count"`
	LatestDate   string `json:"latest_date,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

func main() {
	var (
		url      = flag.String("url", "", "check a single feed URL instead of reading from the database")
		all      = flag.Bool("all", false, "check every enabled feed in the database")
		jsonOut  = flag.Bool("json", false, "print results as JSON instead of a text report")
		timeout  = flag.Duration("timeout", 30*time.Second, "per-feed fetch timeout")
	)
	flag.Parse()

	fetcher := scraper.NewRSSFetcher(httpClient())

	var diagnostics []diagnostic
	switch {
	case *url != "":
		diagnostics = append(diagnostics, check(fetcher, "", *url, *timeout))
	case *all:
		feeds := loadEnabledFeeds()
		log.Printf("checking %d enabled feeds", len(feeds))
		for i, f := range feeds {
			log.Printf("[%d/%d] %s", i+1, len(feeds), f.Name)
			diagnostics = append(diagnostics, check(fetcher, f.Name, f.URL, *timeout))
			time.Sleep(250 * time.Millisecond)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: feedcheck -url <feed-url> | -all")
		os.Exit(2)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diagnostics); err != nil {
			log.Fatalf("failed to encode report: %v", err)
		}
		return
	}

	printReport(diagnostics)
}

func check(fetcher *scraper.RSSFetcher, name, url string, timeout time.Duration) diagnostic {
	if name == "" {
		name = url
	}
	d := diagnostic{Name: name, URL: url}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	items, err := fetcher.Fetch(ctx, url)
	d.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			d.Status = "TIMEOUT"
		} else {
			d.Status = "FETCH_ERROR"
		}
		d.ErrorMessage = err.Error()
		return d
	}

	d.ItemCount = len(items)
	if len(items) == 0 {
		d.Status = "EMPTY"
		d.ErrorMessage = "feed returned no items"
		return d
	}

	d.Status = "OK"
	d.LatestDate = items[0].PublishedAt.Format(time.RFC3339)
	return d
}

func loadEnabledFeeds() []*entity.Feed {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	store := pgRepo.New(database)
	feeds, err := store.ListEnabledFeeds(context.Background())
	if err != nil {
		log.Fatalf("failed to list enabled feeds: %v", err)
	}
	return feeds
}

func httpClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

func printReport(diagnostics []diagnostic) {
	var ok, broken int
	for _, d := range diagnostics {
		if d.Status == "OK" {
			ok++
		} else {
			broken++
		}
	}

	fmt.Printf("checked %d feeds: %d ok, %d broken\n\n", len(diagnostics), ok, broken)
	for _, d := range diagnostics {
		fmt.Printf("%s\n  url: %s\n  status: %s | items: %d | response: %dms\n",
			d.Name, d.URL, d.Status, d.ItemCount, d.ResponseTime)
		if d.LatestDate != "" {
			fmt.Printf("  latest: %s\n", d.LatestDate)
		}
		if d.ErrorMessage != "" {
			fmt.Printf("  error: %s\n", d.ErrorMessage)
		}
		fmt.Println()
	}
}
