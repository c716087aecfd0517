// Package notification publishes account activity events.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KindSignUp is emitted after a user is created.
	KindSignUp = "user.signed_up"
	// KindLogin is emitted after a successful token login.
	KindLogin = "user.logged_in"

	// DefaultStream is the Redis stream RedisNotifier appends to.
	DefaultStream = "auth:events"
	defaultMaxLen = 10000
)

// Message describes an account activity event. Destination is the user id.
type Message struct {
	Kind        string
	Destination string
	OccurredAt  time.Time
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.String("user_id", message.Destination),
		slog.Time("occurred_at", message.OccurredAt),
	)
	return nil
}

// RedisNotifier appends notifications to a capped Redis stream.
type RedisNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisNotifier publishes to stream, or DefaultStream when empty.
func NewRedisNotifier(client *redis.Client, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisNotifier{client: client, stream: stream, maxLen: defaultMaxLen}
}

// Send appends the message as a stream entry.
func (n *RedisNotifier) Send(ctx context.Context, message Message) error {
	err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Values: map[string]any{
			"kind":        message.Kind,
			"user_id":     message.Destination,
			"occurred_at": message.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", message.Kind, err)
	}
	return nil
}
