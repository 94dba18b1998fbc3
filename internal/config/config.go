// Package config loads every tunable spec 6/7 enumerates from the
// environment using the teacher's fail-open/fail-closed idiom: tunable
// knobs fall back to documented defaults with a logged warning
// (internal/pkg/config.LoadEnvWithFallback), while required secrets
// (API keys, webhook URLs when their channel is enabled) fail closed with
// a ConfigurationError at startup.
package config

import (
	"log/slog"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/domain/normalize"
	"catchup-feed/internal/domain/similarity"
	"catchup-feed/internal/infra/embed"
	"catchup-feed/internal/infra/notifier"
	pkgconfig "catchup-feed/internal/pkg/config"
	"catchup-feed/internal/usecase/alert"
	"catchup-feed/internal/usecase/dedup"
	"catchup-feed/internal/usecase/ingest"
	envutil "catchup-feed/pkg/config"
)

// Config bundles every stage's tunables plus the provider/channel
// credentials needed to construct them, loaded once at startup.
type Config struct {
	Ingest ingest.Config
	Dedup  dedup.Config
	Alert  alert.Config
	Embed  embed.Config

	OpenAIAPIKey    string
	AnthropicAPIKey string
	ClaudeModel     string

	Webhook notifier.WebhookConfig
	Email   notifier.EmailConfig
	Slack   notifier.SlackConfig

	LogLevel string
}

// Load reads every knob from the environment, applying the fail-open
// fallback strategy for tunables and returning a ConfigurationError only
// when a required secret is missing for an explicitly enabled channel.
func Load() (*Config, error) {
	var warnings []string
	record := func(r pkgconfig.ConfigLoadResult) {
		warnings = append(warnings, r.Warnings...)
	}

	cronResult := pkgconfig.LoadEnvWithFallback("CRON_SCHEDULE", "*/5 * * * *", pkgconfig.ValidateCronSchedule)
	record(cronResult)
	tzResult := pkgconfig.LoadEnvWithFallback("TIMEZONE", "UTC", pkgconfig.ValidateTimezone)
	record(tzResult)

	ingestDefaults := ingest.DefaultConfig()
	ingestCfg := ingest.Config{
		CronSchedule:          cronResult.Value.(string),
		Timezone:              tzResult.Value.(string),
		FetchTimeout:          envutil.GetEnvDuration("FETCH_TIMEOUT", ingestDefaults.FetchTimeout),
		MaxRedirects:          envutil.GetEnvInt("FETCH_MAX_REDIRECTS", ingestDefaults.MaxRedirects),
		MaxConcurrentFeeds:    envutil.GetEnvInt("MAX_CONCURRENT_FEEDS", ingestDefaults.MaxConcurrentFeeds),
		ContentFetchEnabled:   envutil.GetEnvBool("CONTENT_FETCH_ENABLED", ingestDefaults.ContentFetchEnabled),
		ContentFetchThreshold: envutil.GetEnvInt("CONTENT_FETCH_THRESHOLD", ingestDefaults.ContentFetchThreshold),
		HashAlgorithm:         normalize.HashAlgorithm(envutil.GetEnvString("CONTENT_HASH_ALGORITHM", string(ingestDefaults.HashAlgorithm))),
		EntityTopN:            envutil.GetEnvInt("ENTITY_TOP_N", ingestDefaults.EntityTopN),
		BatchSize:             envutil.GetEnvInt("INGEST_BATCH_SIZE", ingestDefaults.BatchSize),
	}

	dedupDefaults := dedup.DefaultConfig()
	weights := similarity.Weights{
		Title:   envutil.GetEnvFloat("SIMILARITY_WEIGHT_TITLE", dedupDefaults.Similarity.Weights.Title),
		Content: envutil.GetEnvFloat("SIMILARITY_WEIGHT_CONTENT", dedupDefaults.Similarity.Weights.Content),
		Entity:  envutil.GetEnvFloat("SIMILARITY_WEIGHT_ENTITY", dedupDefaults.Similarity.Weights.Entity),
	}
	if err := weights.Validate(); err != nil {
		slog.Warn("invalid similarity weights, falling back to defaults", slog.Any("error", err))
		weights = dedupDefaults.Similarity.Weights
	}

	dedupCfg := dedup.Config{
		Similarity: similarity.Config{
			Weights:          weights,
			TFIDF:            dedupDefaults.Similarity.TFIDF,
			ContentThreshold: envutil.GetEnvFloat("SIMILARITY_CONTENT_THRESHOLD", dedupDefaults.Similarity.ContentThreshold),
			DiscardBelow:     envutil.GetEnvFloat("SIMILARITY_DISCARD_BELOW", dedupDefaults.Similarity.DiscardBelow),
		},
		CandidateWindow:           envutil.GetEnvDuration("DEDUP_CANDIDATE_WINDOW", dedupDefaults.CandidateWindow),
		BatchSize:                 envutil.GetEnvInt("DEDUP_BATCH_SIZE", dedupDefaults.BatchSize),
		QueueCapacity:             envutil.GetEnvInt("DEDUP_QUEUE_CAPACITY", dedupDefaults.QueueCapacity),
		MaxAttempts:               envutil.GetEnvInt("DEDUP_MAX_ATTEMPTS", dedupDefaults.MaxAttempts),
		SemanticValidationEnabled: envutil.GetEnvBool("SEMANTIC_VALIDATION_ENABLED", dedupDefaults.SemanticValidationEnabled),
		BorderlineLow:             envutil.GetEnvFloat("DEDUP_BORDERLINE_LOW", dedupDefaults.BorderlineLow),
		BorderlineHigh:            envutil.GetEnvFloat("DEDUP_BORDERLINE_HIGH", dedupDefaults.BorderlineHigh),
	}

	alertDefaults := alert.DefaultConfig()
	alertCfg := alert.Config{
		MaxAlertsPerHour:        envutil.GetEnvInt("ALERT_MAX_PER_HOUR", alertDefaults.MaxAlertsPerHour),
		CooldownWindow:          envutil.GetEnvDuration("ALERT_COOLDOWN_WINDOW", alertDefaults.CooldownWindow),
		QualityThreshold:        envutil.GetEnvInt("ALERT_QUALITY_THRESHOLD", alertDefaults.QualityThreshold),
		TrustedSources:          envutil.GetEnvStringList("ALERT_TRUSTED_SOURCES", alertDefaults.TrustedSources),
		DispatchTimeout:         envutil.GetEnvDuration("ALERT_DISPATCH_TIMEOUT", alertDefaults.DispatchTimeout),
		MaxConcurrentDispatches: envutil.GetEnvInt("ALERT_MAX_CONCURRENT_DISPATCHES", alertDefaults.MaxConcurrentDispatches),
		QueueCapacity:           envutil.GetEnvInt("ALERT_QUEUE_CAPACITY", alertDefaults.QueueCapacity),
	}

	embedDefaults := embed.DefaultConfig()
	embedCfg := embed.Config{
		Model:     envutil.GetEnvString("EMBEDDING_MODEL", embedDefaults.Model),
		Dimension: envutil.GetEnvInt("EMBEDDING_DIMENSION", embedDefaults.Dimension),
		Timeout:   envutil.GetEnvDuration("EMBEDDING_TIMEOUT", embedDefaults.Timeout),
		CacheSize: envutil.GetEnvInt("EMBEDDING_CACHE_SIZE", embedDefaults.CacheSize),
	}

	webhookCfg := notifier.WebhookConfig{
		Enabled: envutil.GetEnvBool("WEBHOOK_ENABLED", false),
		URL:     envutil.GetEnvString("WEBHOOK_URL", ""),
		Timeout: envutil.GetEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
	}
	if webhookCfg.Enabled && webhookCfg.URL == "" {
		return nil, &entity.ConfigurationError{Key: "WEBHOOK_URL", Message: "required when WEBHOOK_ENABLED=true"}
	}

	emailCfg := notifier.EmailConfig{
		Enabled:   envutil.GetEnvBool("EMAIL_ENABLED", false),
		Host:      envutil.GetEnvString("SMTP_HOST", ""),
		Port:      envutil.GetEnvString("SMTP_PORT", "587"),
		Username:  envutil.GetEnvString("SMTP_USERNAME", ""),
		Password:  envutil.GetEnvString("SMTP_PASSWORD", ""),
		FromEmail: envutil.GetEnvString("SMTP_FROM_EMAIL", ""),
		FromName:  envutil.GetEnvString("SMTP_FROM_NAME", "Catchup Feed Alerts"),
		To:        envutil.GetEnvStringList("ALERT_EMAIL_TO", nil),
		Timeout:   envutil.GetEnvDuration("SMTP_TIMEOUT", 15*time.Second),
	}
	if emailCfg.Enabled && (emailCfg.Host == "" || emailCfg.FromEmail == "" || len(emailCfg.To) == 0) {
		return nil, &entity.ConfigurationError{Key: "SMTP_HOST/SMTP_FROM_EMAIL/ALERT_EMAIL_TO", Message: "all required when EMAIL_ENABLED=true"}
	}

	slackCfg := notifier.SlackConfig{
		Enabled:    envutil.GetEnvBool("SLACK_ENABLED", false),
		WebhookURL: envutil.GetEnvString("SLACK_WEBHOOK_URL", ""),
		Timeout:    envutil.GetEnvDuration("SLACK_TIMEOUT", 10*time.Second),
	}
	if slackCfg.Enabled && slackCfg.WebhookURL == "" {
		return nil, &entity.ConfigurationError{Key: "SLACK_WEBHOOK_URL", Message: "required when SLACK_ENABLED=true"}
	}

	openAIKey := envutil.GetEnvString("OPENAI_API_KEY", "")
	anthropicKey := envutil.GetEnvString("ANTHROPIC_API_KEY", "")
	if dedupCfg.SemanticValidationEnabled && openAIKey == "" {
		return nil, &entity.ConfigurationError{Key: "OPENAI_API_KEY", Message: "required when SEMANTIC_VALIDATION_ENABLED=true"}
	}

	for _, w := range warnings {
		slog.Warn("configuration fallback applied", slog.String("detail", w))
	}

	return &Config{
		Ingest:          ingestCfg,
		Dedup:           dedupCfg,
		Alert:           alertCfg,
		Embed:           embedCfg,
		OpenAIAPIKey:    openAIKey,
		AnthropicAPIKey: anthropicKey,
		ClaudeModel:     envutil.GetEnvString("CLAUDE_VALIDATION_MODEL", "claude-3-5-haiku-20241022"),
		Webhook:         webhookCfg,
		Email:           emailCfg,
		Slack:           slackCfg,
		LogLevel:        envutil.GetEnvString("LOG_LEVEL", "info"),
	}, nil
}
