package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"catchup-feed/internal/config"
	"catchup-feed/internal/infra/adapter/feedconfig"
	pgRepo "catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/infra/db"
	"catchup-feed/internal/infra/embed"
	"catchup-feed/internal/infra/fetcher"
	"catchup-feed/internal/infra/notifier"
	"catchup-feed/internal/infra/scraper"
	workerPkg "catchup-feed/internal/infra/worker"
	"catchup-feed/internal/usecase/alert"
	"catchup-feed/internal/usecase/dedup"
	"catchup-feed/internal/usecase/ingest"
	"catchup-feed/internal/usecase/maintenance"
	envutil "catchup-feed/pkg/config"
)

func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM feeds LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.String("cron_schedule", cfg.Ingest.CronSchedule),
		slog.String("timezone", cfg.Ingest.Timezone),
		slog.Bool("webhook_enabled", cfg.Webhook.Enabled),
		slog.Bool("slack_enabled", cfg.Slack.Enabled),
		slog.Bool("email_enabled", cfg.Email.Enabled))

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	store := pgRepo.New(database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncFeedsConfig(ctx, logger, store)

	healthPort := envutil.GetEnvInt("HEALTH_PORT", 9091)
	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", healthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health server started", slog.Int("port", healthPort))

	channels := buildChannels(logger, cfg)
	dispatcherMetrics := alert.NewMetrics()
	dispatcher := alert.NewDispatcher(store, channels, cfg.Alert, dispatcherMetrics)
	dispatcher.Start()

	embedder, validator := buildEmbedProviders(logger, cfg)
	dedupMetrics := dedup.NewMetrics()
	dedupEngine := dedup.New(store, cfg.Dedup, embedder, validator, dedupMetrics)
	dedupEngine.SetAlertHook(dispatcher)
	dedupEngine.Start(ctx)

	httpClient := createHTTPClient()
	feedFetcher := scraper.NewRSSFetcher(httpClient)

	var contentFetcher ingest.ContentFetcher
	if cfg.Ingest.ContentFetchEnabled {
		contentFetchConfig := fetcher.DefaultConfig()
		contentFetchConfig.Enabled = true
		contentFetchConfig.Threshold = cfg.Ingest.ContentFetchThreshold
		contentFetcher = fetcher.NewReadabilityFetcher(contentFetchConfig)
		logger.Info("content fetching enabled", slog.Int("threshold", cfg.Ingest.ContentFetchThreshold))
	} else {
		logger.Info("content fetching disabled")
	}

	ingestMetrics := ingest.NewMetrics()
	ingestSvc := ingest.NewService(store, feedFetcher, contentFetcher, dedupEngine, ingestMetrics, cfg.Ingest)

	scheduler, err := ingest.NewScheduler(ingestSvc, cfg.Ingest)
	if err != nil {
		logger.Error("failed to start ingest scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	sweeper := maintenance.New(store, maintenance.DefaultConfig(), maintenance.NewMetrics())
	sweeper.Start(ctx)

	scheduler.Start()
	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.Ingest.CronSchedule), slog.String("timezone", cfg.Ingest.Timezone))

	<-ctx.Done()
	logger.Info("shutdown signal received, draining in reverse dataflow order")
	healthServer.SetReady(false)

	shutdownCtx := scheduler.Stop()
	<-shutdownCtx.Done()
	for scheduler.Running() {
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("ingest scheduler stopped")

	dedupEngine.Close()
	logger.Info("dedup engine drained")

	sweeper.Stop()
	logger.Info("maintenance sweeper stopped")

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := dispatcher.Close(closeCtx); err != nil {
		logger.Error("alert dispatcher did not drain cleanly", slog.Any("error", err))
	} else {
		logger.Info("alert dispatcher drained")
	}
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// syncFeedsConfig loads the feeds configuration file named by
// FEEDS_CONFIG_PATH (spec §6), if set, and upserts its entries into the
// store. Absent or unreadable config is non-fatal: feeds already in the
// store (e.g. seeded via the admin surface) keep running unchanged.
func syncFeedsConfig(ctx context.Context, logger *slog.Logger, store *pgRepo.Store) {
	path := os.Getenv("FEEDS_CONFIG_PATH")
	if path == "" {
		return
	}

	doc, err := feedconfig.Load(path)
	if err != nil {
		logger.Warn("feeds config not loaded, continuing with feeds already in store",
			slog.String("path", path), slog.Any("error", err))
		return
	}

	created, updated, err := feedconfig.Sync(ctx, store, doc)
	if err != nil {
		logger.Warn("feeds config sync failed partway through",
			slog.String("path", path), slog.Any("error", err))
		return
	}
	logger.Info("feeds config synced",
		slog.String("path", path), slog.Int("created", created), slog.Int("updated", updated))
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// buildChannels assembles the enabled alert.Channel set from configuration.
// Disabled channels are omitted entirely rather than wired as no-ops, since
// alert.Dispatcher already treats an empty channel selection as a no-op
// delivery outcome.
func buildChannels(logger *slog.Logger, cfg *config.Config) []alert.Channel {
	var channels []alert.Channel

	webhookChannel := notifier.NewWebhookChannel(cfg.Webhook)
	if webhookChannel.IsEnabled() {
		channels = append(channels, webhookChannel)
		logger.Info("webhook alert channel enabled")
	}

	slackChannel := notifier.NewSlackChannel(cfg.Slack)
	if slackChannel.IsEnabled() {
		channels = append(channels, slackChannel)
		logger.Info("slack alert channel enabled")
	}

	emailChannel := notifier.NewEmailChannel(cfg.Email)
	if emailChannel.IsEnabled() {
		channels = append(channels, emailChannel)
		logger.Info("email alert channel enabled")
	}

	if len(channels) == 0 {
		logger.Warn("no alert channels enabled, alerts will be dropped after admission")
	}

	return channels
}

// buildEmbedProviders wires the embedding provider and optional semantic
// validator. Both degrade gracefully: a nil OpenAI client falls back to a
// deterministic vector, and a nil validator simply skips the borderline
// LLM-confirmation step.
func buildEmbedProviders(logger *slog.Logger, cfg *config.Config) (dedup.EmbeddingProvider, dedup.Validator) {
	embedMetrics := embed.NewMetrics()

	var client embed.EmbeddingClient
	if cfg.OpenAIAPIKey != "" {
		client = embed.NewOpenAIClient(cfg.OpenAIAPIKey)
		logger.Info("embedding provider using openai")
	} else {
		logger.Warn("no OPENAI_API_KEY set, embeddings will use deterministic fallback vectors")
	}
	provider := embed.NewProvider(client, cfg.Embed, embedMetrics)

	var validator dedup.Validator
	if cfg.Dedup.SemanticValidationEnabled && cfg.AnthropicAPIKey != "" {
		validator = embed.NewValidator(cfg.AnthropicAPIKey, cfg.ClaudeModel)
		logger.Info("semantic duplicate validation enabled", slog.String("model", cfg.ClaudeModel))
	}

	return provider, validator
}

// createHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced for security.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
