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

	"catchup-feed/internal/domain/entity"

	"github.com/google/uuid"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackChannel delivers alerts to Slack via Incoming Webhook, using a
// single attachment with color-by-priority per spec 6, in place of the
// teacher's Block Kit layout (attachments remain a supported Slack payload
// and are a closer match to the single-glance alert format the spec wants).
type SlackChannel struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackChannel creates a new SlackChannel with a 1 request/second, burst
// of 1 rate limiter, matching Slack's Incoming Webhook limit.
func NewSlackChannel(config SlackConfig) *SlackChannel {
	return &SlackChannel{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// Name implements alert.Channel.
func (s *SlackChannel) Name() entity.Channel {
	return entity.ChannelSlack
}

// IsEnabled implements alert.Channel.
func (s *SlackChannel) IsEnabled() bool {
	return s.config.Enabled
}

// slackPayload is a single-attachment Slack Incoming Webhook message.
type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

const maxSlackTextLength = 3000

// attachmentColor maps alert priority to Slack's attachment color
// convention, per spec 6: high=danger, medium=warning, low=good.
func attachmentColor(p entity.Priority) string {
	switch p {
	case entity.PriorityHigh:
		return "danger"
	case entity.PriorityLow:
		return "good"
	default:
		return "warning"
	}
}

// buildSlackPayload creates the attachment payload for an alert: a
// clickable title linking to the article, color-coded by priority, with
// Source/Category/Priority/Published fields.
func buildSlackPayload(a *entity.Alert) slackPayload {
	title := a.Title
	if a.URL != "" {
		title = fmt.Sprintf("<%s|%s>", a.URL, a.Title)
	}

	return slackPayload{
		Attachments: []slackAttachment{{
			Color: attachmentColor(a.Priority),
			Title: title,
			Text:  truncateSummary(a.Summary, maxSlackTextLength, "..."),
			Fields: []slackField{
				{Title: "Source", Value: a.Source, Short: true},
				{Title: "Category", Value: a.Category, Short: true},
				{Title: "Priority", Value: string(a.Priority), Short: true},
				{Title: "Published", Value: a.PublishedAt.Format(time.RFC3339), Short: true},
			},
			Ts: a.CreatedAt.Unix(),
		}},
	}
}

func (s *SlackChannel) doSend(ctx context.Context, a *entity.Alert) (int, error) {
	payload := buildSlackPayload(a)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return 0, fmt.Errorf("create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, &RateLimitError{
			Message:    "Slack rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return resp.StatusCode, &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API client error: %s", string(body)),
		}
	}

	return resp.StatusCode, &ServerError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Slack API server error: %s", string(body)),
	}
}

// sendWithRetry mirrors the teacher's sendWebhookRequestWithRetry: max 2
// attempts, 429s honor retry_after, 5xx gets a fixed exponential backoff,
// 4xx fails immediately.
func (s *SlackChannel) sendWithRetry(ctx context.Context, a *entity.Alert, requestID string) entity.ChannelResult {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		statusCode, err := s.doSend(ctx, a)

		if err == nil {
			slog.Info("Slack alert delivered",
				slog.String("request_id", requestID),
				slog.Int64("alert_id", a.ID),
				slog.Int("attempt", attempt))
			return entity.ChannelResult{Channel: entity.ChannelSlack, Success: true, StatusCode: statusCode}
		}

		lastErr = err
		lastStatus = statusCode

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("Slack rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.Int64("alert_id", a.ID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))

			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return entity.ChannelResult{Channel: entity.ChannelSlack, Success: false, Error: ctx.Err().Error()}
			}
		}

		if !isRetryableError(err) {
			slog.Error("Slack alert failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.Int64("alert_id", a.ID),
				slog.Any("error", err))
			break
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.Warn("Slack API request failed, retrying",
				slog.String("request_id", requestID),
				slog.Int64("alert_id", a.ID),
				slog.Any("error", err),
				slog.Duration("delay", delay))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return entity.ChannelResult{Channel: entity.ChannelSlack, Success: false, Error: ctx.Err().Error()}
			}
		}
	}

	slog.Error("Slack alert failed after all retries",
		slog.String("request_id", requestID),
		slog.Int64("alert_id", a.ID),
		slog.Any("error", lastErr))

	return entity.ChannelResult{Channel: entity.ChannelSlack, Success: false, StatusCode: lastStatus, Error: lastErr.Error()}
}

// Send implements alert.Channel.
func (s *SlackChannel) Send(ctx context.Context, a *entity.Alert) entity.ChannelResult {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("dispatching Slack alert",
		slog.String("request_id", requestID),
		slog.Int64("alert_id", a.ID),
		slog.String("url", a.URL))

	if err := s.rateLimiter.Allow(ctx); err != nil {
		slog.Error("rate limiter error", slog.String("request_id", requestID), slog.Any("error", err))
		return entity.ChannelResult{Channel: entity.ChannelSlack, Success: false, Error: fmt.Sprintf("rate limiter error: %v", err)}
	}

	return s.sendWithRetry(ctx, a, requestID)
}
