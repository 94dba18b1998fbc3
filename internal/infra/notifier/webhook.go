package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"catchup-feed/internal/domain/entity"
)

// WebhookConfig configures the generic JSON webhook channel.
type WebhookConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// WebhookChannel delivers alerts as a generic JSON POST, per spec 6's
// webhook payload shape. Structurally identical in approach to the
// teacher's SlackNotifier (rate limit, bounded retry, 4xx/5xx/429
// classification via common.go's error types), pointed at a
// provider-agnostic payload instead of Slack's API.
type WebhookChannel struct {
	config      WebhookConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewWebhookChannel constructs a WebhookChannel. 3 requests/second with a
// burst of 3 matches the channel's documented retry budget (3 attempts)
// without starving a burst of alerts.
func NewWebhookChannel(config WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(3.0, 3),
	}
}

// Name implements alert.Channel.
func (w *WebhookChannel) Name() entity.Channel {
	return entity.ChannelWebhook
}

// IsEnabled implements alert.Channel.
func (w *WebhookChannel) IsEnabled() bool {
	return w.config.Enabled
}

type webhookPayload struct {
	Type  string        `json:"type"`
	Alert webhookAlert  `json:"alert"`
	Meta  webhookMeta   `json:"metadata"`
}

type webhookAlert struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Source      string   `json:"source"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
	Entities    []string `json:"entities"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
}

type webhookMeta struct {
	System    string `json:"system"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

const maxWebhookEntities = 10

func buildWebhookPayload(a *entity.Alert) webhookPayload {
	entities := make([]string, 0, min(len(a.Entities), maxWebhookEntities))
	for i, e := range a.Entities {
		if i >= maxWebhookEntities {
			break
		}
		entities = append(entities, e.Name)
	}

	return webhookPayload{
		Type: "news_alert",
		Alert: webhookAlert{
			ID:          a.ID,
			Title:       a.Title,
			Summary:     a.Summary,
			Source:      a.Source,
			Category:    a.Category,
			Priority:    string(a.Priority),
			URL:         a.URL,
			PublishedAt: a.PublishedAt.Format(time.RFC3339),
			Entities:    entities,
			Tags:        a.Tags,
			CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		},
		Meta: webhookMeta{
			System:    "catchup-feed",
			Version:   "1",
			Timestamp: time.Now().Format(time.RFC3339),
		},
	}
}

// Send implements alert.Channel.
func (w *WebhookChannel) Send(ctx context.Context, a *entity.Alert) entity.ChannelResult {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return entity.ChannelResult{Channel: entity.ChannelWebhook, Success: false, Error: fmt.Sprintf("rate limiter error: %v", err)}
	}

	return w.sendWithRetry(ctx, a, requestID)
}

// sendWithRetry retries transient failures up to 3 attempts, per the
// channel's documented retry contract (spec 4.F).
func (w *WebhookChannel) sendWithRetry(ctx context.Context, a *entity.Alert, requestID string) entity.ChannelResult {
	const maxAttempts = 3
	baseDelay := 2 * time.Second

	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		statusCode, err := w.doSend(ctx, a)
		if err == nil {
			slog.Info("webhook alert delivered", slog.String("request_id", requestID), slog.Int64("alert_id", a.ID), slog.Int("attempt", attempt))
			return entity.ChannelResult{Channel: entity.ChannelWebhook, Success: true, StatusCode: statusCode}
		}

		lastErr = err
		lastStatus = statusCode

		if rl, ok := is429Error(err); ok {
			select {
			case <-time.After(rl.RetryAfter):
				continue
			case <-ctx.Done():
				return entity.ChannelResult{Channel: entity.ChannelWebhook, Success: false, Error: ctx.Err().Error()}
			}
		}

		if !isRetryableError(err) {
			break
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(baseDelay * time.Duration(attempt)):
				continue
			case <-ctx.Done():
				return entity.ChannelResult{Channel: entity.ChannelWebhook, Success: false, Error: ctx.Err().Error()}
			}
		}
	}

	slog.Warn("webhook alert delivery failed", slog.String("request_id", requestID), slog.Int64("alert_id", a.ID), slog.Any("error", lastErr))
	return entity.ChannelResult{Channel: entity.ChannelWebhook, Success: false, StatusCode: lastStatus, Error: lastErr.Error()}
}

func (w *WebhookChannel) doSend(ctx context.Context, a *entity.Alert) (int, error) {
	payload := buildWebhookPayload(a)
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, &RateLimitError{Message: "webhook rate limit exceeded", RetryAfter: extractRetryAfter(resp, respBody)}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return resp.StatusCode, &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("webhook client error: %s", string(respBody))}
	}
	return resp.StatusCode, &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("webhook server error: %s", string(respBody))}
}
