package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis Pub/Sub channel used to share change
// notifications between server instances.
const DefaultChannel = "spolek:realtime"

// RedisBridge publishes change notifications through Redis so that every
// instance's Hub sees writes made by any instance.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

// NewRedisBridge creates a bridge delivering into hub.
func NewRedisBridge(client *redis.Client, hub *Hub) *RedisBridge {
	return &RedisBridge{client: client, channel: DefaultChannel, hub: hub}
}

// Publish sends topics to Redis. If Redis is unreachable, the local hub is
// notified directly so this instance's watchers still update.
func (b *RedisBridge) Publish(ctx context.Context, topics ...string) {
	if len(topics) == 0 {
		return
	}
	data, err := json.Marshal(topics)
	if err == nil {
		err = b.client.Publish(ctx, b.channel, data).Err()
	}
	if err != nil {
		slog.Warn("Failed to publish realtime notification", "channel", b.channel, "error", err)
		b.hub.Publish(ctx, topics...)
	}
}

// Run relays notifications from Redis into the hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	slog.Info("Subscribed to realtime channel", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var topics []string
			if err := json.Unmarshal([]byte(msg.Payload), &topics); err != nil {
				slog.Error("Failed to decode realtime notification", "payload", msg.Payload, "error", err)
				continue
			}
			b.hub.Publish(ctx, topics...)
		}
	}
}

var _ Publisher = (*RedisBridge)(nil)
