// Package notifier implements alert.Channel for the three delivery
// mechanisms spec 6 enumerates: a generic JSON webhook, email via SMTP, and
// Slack via incoming webhook. Each channel owns its own rate limiting,
// retries, and error classification, matching the teacher's Discord/Slack
// notifier shape adapted from per-article notification to per-alert
// dispatch (internal/usecase/alert.Channel instead of this package's
// former article/source-shaped Notifier interface).
package notifier
