// Package alert implements the alert dispatcher (spec component F): an
// admission gate (rate limit, cooldown, quality threshold), priority
// calculation, channel selection, and per-channel fan-out dispatch with
// result tracking.
package alert

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// Channel is one outbound alert delivery surface (webhook, email, slack),
// narrowed to the Alert domain type instead of an (article, source) pair.
type Channel interface {
	// Name identifies the channel for selection, logging and metrics.
	Name() entity.Channel

	// IsEnabled reports whether this channel is configured and should
	// participate in dispatch.
	IsEnabled() bool

	// Send delivers the alert, returning a populated ChannelResult.
	// Send itself never returns an error: transport/API failures are
	// captured in the returned result so dispatch can fan out to every
	// selected channel without short-circuiting on the first failure.
	Send(ctx context.Context, alert *entity.Alert) entity.ChannelResult
}
