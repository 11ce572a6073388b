/*
notify.go - Delivery surface abstraction

PURPOSE:
  The engine never talks to a chat transport directly. It emits plain
  messages through a Sink; whatever front end is attached (Discord,
  Slack, a log) renders them. Business state never depends on delivery:
  a failed DirectMessage or PostChannel is logged per recipient and the
  underlying ledger commit stands.

CHANNEL RESOLUTION:
  Channels are resolved from a Directory in three passes, mirroring how
  the front end locates them:
    1. Explicit identifier override
    2. Exact display name
    3. Normalized name: lowercase, keep only [a-z0-9-]
  Decorated names like "⭐monthly-raffle-tickets⭐" thus match their plain
  configured form.

SEE ALSO:
  - api/handlers.go: Emits submission/approval notifications
  - api/scheduler.go: Emits shift reminders
*/
package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Sink delivers messages to users and channels. Implementations must be
// safe for concurrent use.
type Sink interface {
	// DirectMessage delivers text to a single user.
	DirectMessage(ctx context.Context, userID, text string) error

	// PostChannel delivers text to a channel by resolved identifier.
	PostChannel(ctx context.Context, channelID, text string) error
}

// ErrChannelNotFound is returned when no directory entry matches a ref.
var ErrChannelNotFound = errors.New("channel not found")

// =============================================================================
// CHANNEL DIRECTORY
// =============================================================================

// Channel is one addressable delivery target.
type Channel struct {
	ID   string
	Name string
}

// ChannelRef is a configured way of pointing at a channel.
type ChannelRef struct {
	ID   string
	Name string
}

// Directory resolves channel references against the known channel set.
type Directory struct {
	channels []Channel
}

func NewDirectory(channels ...Channel) *Directory {
	return &Directory{channels: channels}
}

// Resolve finds a channel by id override, exact name, then normalized
// name, in that order.
func (d *Directory) Resolve(ref ChannelRef) (Channel, error) {
	if ref.ID != "" {
		for _, ch := range d.channels {
			if ch.ID == ref.ID {
				return ch, nil
			}
		}
	}
	if ref.Name != "" {
		for _, ch := range d.channels {
			if ch.Name == ref.Name {
				return ch, nil
			}
		}
		want := Normalize(ref.Name)
		if want != "" {
			for _, ch := range d.channels {
				if Normalize(ch.Name) == want {
					return ch, nil
				}
			}
		}
	}
	return Channel{}, ErrChannelNotFound
}

// Normalize lowercases a channel name and strips every rune outside
// [a-z0-9-].
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// LOG SINK
// =============================================================================

// LogSink writes every message to the structured log. It is the default
// delivery surface when no chat transport is attached, and always
// succeeds.
type LogSink struct {
	Log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{Log: log}
}

func (s *LogSink) DirectMessage(_ context.Context, userID, text string) error {
	s.Log.Info("direct message", zap.String("user", userID), zap.String("text", text))
	return nil
}

func (s *LogSink) PostChannel(_ context.Context, channelID, text string) error {
	s.Log.Info("channel post", zap.String("channel", channelID), zap.String("text", text))
	return nil
}
