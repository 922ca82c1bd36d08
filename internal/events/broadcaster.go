package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster is the fan-out sink for engine events. Delivery is best effort
// and at most once; a failed publish never affects the originating operation.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// RedisBroadcaster publishes JSON payloads to Redis pub/sub channels, one
// channel per topic. Downstream gateways subscribe and relay to browsers.
type RedisBroadcaster struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroadcaster wraps a connected client.
func NewRedisBroadcaster(client *redis.Client, logger *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger}
}

// Publish marshals payload and publishes it on the topic channel.
func (b *RedisBroadcaster) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		b.logger.Warn("broadcast publish failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	return nil
}

// NopBroadcaster discards everything. Used when no Redis is configured.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(context.Context, string, any) error { return nil }
