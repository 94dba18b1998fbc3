package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
)

func testAlert() *entity.Alert {
	return &entity.Alert{
		ID:          42,
		Title:       "Major Merger Announced",
		Summary:     "Two large companies announced a merger worth billions.",
		Source:      "Reuters",
		Category:    "business",
		Priority:    entity.PriorityHigh,
		URL:         "https://example.com/article/42",
		PublishedAt: time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2026, 7, 30, 9, 5, 0, 0, time.UTC),
	}
}

func TestBuildSlackPayload(t *testing.T) {
	t.Run("includes clickable title and all fields", func(t *testing.T) {
		a := testAlert()
		payload := buildSlackPayload(a)

		require.Len(t, payload.Attachments, 1)
		att := payload.Attachments[0]

		assert.Equal(t, "danger", att.Color)
		assert.Equal(t, "<https://example.com/article/42|Major Merger Announced>", att.Title)
		assert.Equal(t, a.Summary, att.Text)
		assert.Equal(t, a.CreatedAt.Unix(), att.Ts)

		fieldsByTitle := map[string]string{}
		for _, f := range att.Fields {
			fieldsByTitle[f.Title] = f.Value
		}
		assert.Equal(t, "Reuters", fieldsByTitle["Source"])
		assert.Equal(t, "business", fieldsByTitle["Category"])
		assert.Equal(t, "high", fieldsByTitle["Priority"])
		assert.Equal(t, a.PublishedAt.Format(time.RFC3339), fieldsByTitle["Published"])
	})

	t.Run("falls back to plain title when URL is empty", func(t *testing.T) {
		a := testAlert()
		a.URL = ""

		payload := buildSlackPayload(a)
		assert.Equal(t, "Major Merger Announced", payload.Attachments[0].Title)
	})

	t.Run("truncates long summaries", func(t *testing.T) {
		a := testAlert()
		a.Summary = strings.Repeat("x", maxSlackTextLength+500)

		payload := buildSlackPayload(a)
		assert.LessOrEqual(t, len(payload.Attachments[0].Text), maxSlackTextLength)
		assert.True(t, strings.HasSuffix(payload.Attachments[0].Text, "..."))
	})
}

func TestAttachmentColor(t *testing.T) {
	assert.Equal(t, "danger", attachmentColor(entity.PriorityHigh))
	assert.Equal(t, "good", attachmentColor(entity.PriorityLow))
	assert.Equal(t, "warning", attachmentColor(entity.PriorityMedium))
}

func TestSlackChannel_NameAndEnabled(t *testing.T) {
	ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/x", Timeout: time.Second})
	assert.Equal(t, entity.ChannelSlack, ch.Name())
	assert.True(t, ch.IsEnabled())

	disabled := NewSlackChannel(SlackConfig{Enabled: false})
	assert.False(t, disabled.IsEnabled())
}

func TestSlackChannel_Send(t *testing.T) {
	t.Run("success on 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload slackPayload
			err := json.NewDecoder(r.Body).Decode(&payload)
			require.NoError(t, err)
			require.Len(t, payload.Attachments, 1)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: server.URL, Timeout: 5 * time.Second})
		result := ch.Send(context.Background(), testAlert())

		assert.True(t, result.Success)
		assert.Equal(t, entity.ChannelSlack, result.Channel)
		assert.Equal(t, http.StatusOK, result.StatusCode)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_payload"}`))
		}))
		defer server.Close()

		ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: server.URL, Timeout: 5 * time.Second})
		result := ch.Send(context.Background(), testAlert())

		assert.False(t, result.Success)
		assert.Equal(t, http.StatusBadRequest, result.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("server error retries up to max attempts", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: server.URL, Timeout: 5 * time.Second})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		result := ch.Send(ctx, testAlert())

		assert.False(t, result.Success)
		assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(1))
	})

	t.Run("rate limit error honors retry_after then succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"retry_after":0.01}`))
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: server.URL, Timeout: 5 * time.Second})
		result := ch.Send(context.Background(), testAlert())

		assert.True(t, result.Success)
		assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	})

	t.Run("marshal/transport failure surfaces as a failed result, not a panic", func(t *testing.T) {
		ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: "http://127.0.0.1:0", Timeout: 100 * time.Millisecond})
		result := ch.Send(context.Background(), testAlert())

		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
	})
}
