package notifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"catchup-feed/internal/domain/entity"
)

func testEmailConfig() EmailConfig {
	return EmailConfig{
		Enabled:   true,
		Host:      "smtp.example.com",
		Port:      "587",
		Username:  "alerts@example.com",
		Password:  "secret",
		FromEmail: "alerts@example.com",
		FromName:  "Catchup Feed Alerts",
		To:        []string{"oncall@example.com"},
		Timeout:   5 * time.Second,
	}
}

func TestEmailChannel_NameAndEnabled(t *testing.T) {
	ch := NewEmailChannel(testEmailConfig())
	assert.Equal(t, entity.ChannelEmail, ch.Name())
	assert.True(t, ch.IsEnabled())

	t.Run("disabled without recipients", func(t *testing.T) {
		cfg := testEmailConfig()
		cfg.To = nil
		ch := NewEmailChannel(cfg)
		assert.False(t, ch.IsEnabled())
	})

	t.Run("disabled when configured off", func(t *testing.T) {
		cfg := testEmailConfig()
		cfg.Enabled = false
		ch := NewEmailChannel(cfg)
		assert.False(t, ch.IsEnabled())
	})
}

func TestBuildEmailSubject(t *testing.T) {
	a := testAlert()
	subject := buildEmailSubject(a)
	assert.Equal(t, "[high] Major Merger Announced", subject)
}

func TestBuildEmailBody(t *testing.T) {
	a := testAlert()
	body := buildEmailBody(a)

	assert.Contains(t, body, a.Title)
	assert.Contains(t, body, "Source:    Reuters")
	assert.Contains(t, body, "Category:  business")
	assert.Contains(t, body, "Priority:  high")
	assert.Contains(t, body, a.Summary)
	assert.Contains(t, body, a.URL)
}

func TestBuildEmailMessage(t *testing.T) {
	cfg := testEmailConfig()
	a := testAlert()

	msg := string(buildEmailMessage(cfg, a))

	assert.True(t, strings.HasPrefix(msg, "From: Catchup Feed Alerts <alerts@example.com>\r\n"))
	assert.Contains(t, msg, "To: oncall@example.com\r\n")
	assert.Contains(t, msg, "Subject: [high] Major Merger Announced\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	assert.Contains(t, msg, a.Summary)
}

func TestJoinAddresses(t *testing.T) {
	assert.Equal(t, "a@example.com", joinAddresses([]string{"a@example.com"}))
	assert.Equal(t, "a@example.com, b@example.com", joinAddresses([]string{"a@example.com", "b@example.com"}))
}

func TestEmailChannel_Send_ConnectionFailure(t *testing.T) {
	cfg := testEmailConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = "1"
	cfg.Timeout = 500 * time.Millisecond

	ch := NewEmailChannel(cfg)
	result := ch.Send(context.Background(), testAlert())

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, entity.ChannelEmail, result.Channel)
}

func TestEmailChannel_Send_CanceledContext(t *testing.T) {
	ch := NewEmailChannel(testEmailConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := ch.Send(ctx, testAlert())
	assert.False(t, result.Success)
}
