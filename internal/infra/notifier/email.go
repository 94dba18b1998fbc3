package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/google/uuid"

	"catchup-feed/internal/domain/entity"
)

// EmailConfig configures SMTP delivery for high-priority alerts. No
// third-party SMTP client appears anywhere in the examples pack, so this
// channel is built directly on net/smtp with STARTTLS, following the
// connection pattern used elsewhere in the pack's email senders.
type EmailConfig struct {
	Enabled   bool
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
	To        []string
	Timeout   time.Duration
}

// EmailChannel delivers alerts via SMTP, reserved for high-priority alerts
// per spec 6's channel selection rule.
type EmailChannel struct {
	config      EmailConfig
	rateLimiter *RateLimiter
}

// NewEmailChannel constructs an EmailChannel with a 1 request/second rate
// limiter, matching typical SMTP relay throttling.
func NewEmailChannel(config EmailConfig) *EmailChannel {
	return &EmailChannel{
		config:      config,
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// Name implements alert.Channel.
func (e *EmailChannel) Name() entity.Channel {
	return entity.ChannelEmail
}

// IsEnabled implements alert.Channel.
func (e *EmailChannel) IsEnabled() bool {
	return e.config.Enabled && len(e.config.To) > 0
}

func buildEmailSubject(a *entity.Alert) string {
	return fmt.Sprintf("[%s] %s", a.Priority, a.Title)
}

func buildEmailBody(a *entity.Alert) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n", a.Title)
	fmt.Fprintf(&buf, "Source:    %s\n", a.Source)
	fmt.Fprintf(&buf, "Category:  %s\n", a.Category)
	fmt.Fprintf(&buf, "Priority:  %s\n", a.Priority)
	fmt.Fprintf(&buf, "Published: %s\n\n", a.PublishedAt.Format(time.RFC3339))
	buf.WriteString(a.Summary)
	if a.URL != "" {
		fmt.Fprintf(&buf, "\n\nRead more: %s\n", a.URL)
	}
	return buf.String()
}

func buildEmailMessage(cfg EmailConfig, a *entity.Alert) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", joinAddresses(cfg.To))
	fmt.Fprintf(&buf, "Subject: %s\r\n", buildEmailSubject(a))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(buildEmailBody(a))
	return buf.Bytes()
}

func joinAddresses(addrs []string) string {
	out := addrs[0]
	for _, a := range addrs[1:] {
		out += ", " + a
	}
	return out
}

// doSend dials the SMTP host directly and upgrades via STARTTLS, mirroring
// the connect-then-auth-then-send sequence used by the pack's SMTP sender,
// generalized from a single configured port.
func (e *EmailChannel) doSend(ctx context.Context, a *entity.Alert) error {
	addr := e.config.Host + ":" + e.config.Port

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}
	defer func() { _ = client.Quit() }()

	tlsConfig := &tls.Config{ServerName: e.config.Host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("start tls: %w", err)
	}

	if e.config.Username != "" {
		auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(e.config.FromEmail); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	for _, to := range e.config.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("set recipient %s: %w", to, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(buildEmailMessage(e.config, a)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// Send implements alert.Channel. SMTP delivery is not subject to the
// common webhook 4xx/5xx/429 classification (there is no HTTP response to
// classify), so failures are reported directly without the shared retry
// machinery used by the webhook and Slack channels.
func (e *EmailChannel) Send(ctx context.Context, a *entity.Alert) entity.ChannelResult {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := e.rateLimiter.Allow(ctx); err != nil {
		return entity.ChannelResult{Channel: entity.ChannelEmail, Success: false, Error: fmt.Sprintf("rate limiter error: %v", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.doSend(sendCtx, a) }()

	select {
	case err := <-done:
		if err != nil {
			slog.Error("email alert failed", slog.String("request_id", requestID), slog.Int64("alert_id", a.ID), slog.Any("error", err))
			return entity.ChannelResult{Channel: entity.ChannelEmail, Success: false, Error: err.Error()}
		}
		slog.Info("email alert delivered", slog.String("request_id", requestID), slog.Int64("alert_id", a.ID))
		return entity.ChannelResult{Channel: entity.ChannelEmail, Success: true, StatusCode: 0}
	case <-sendCtx.Done():
		return entity.ChannelResult{Channel: entity.ChannelEmail, Success: false, Error: sendCtx.Err().Error()}
	}
}
