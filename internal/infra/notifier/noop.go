package notifier

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// NoOpChannel is a disabled alert.Channel, used in place of a nil check
// when a channel's configuration is absent. Follows the teacher's
// NoOpNotifier Null Object pattern.
type NoOpChannel struct {
	name entity.Channel
}

// NewNoOpChannel creates a NoOpChannel reporting the given name and always
// disabled.
func NewNoOpChannel(name entity.Channel) *NoOpChannel {
	return &NoOpChannel{name: name}
}

// Name implements alert.Channel.
func (n *NoOpChannel) Name() entity.Channel {
	return n.name
}

// IsEnabled implements alert.Channel; always false.
func (n *NoOpChannel) IsEnabled() bool {
	return false
}

// Send implements alert.Channel; never called since IsEnabled is false, but
// returns a well-formed failure result defensively.
func (n *NoOpChannel) Send(ctx context.Context, alert *entity.Alert) entity.ChannelResult {
	return entity.ChannelResult{Channel: n.name, Success: false, Error: "channel disabled"}
}
