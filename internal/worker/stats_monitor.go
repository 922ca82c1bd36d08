package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/events"
)

// StartStatsMonitor tails every department's stats channel and logs the
// snapshots, giving operators live queue visibility without a dashboard.
// Runs until ctx is cancelled.
func StartStatsMonitor(ctx context.Context, client *redis.Client, logger *zap.Logger) {
	if client == nil {
		return
	}
	pubsub := client.PSubscribe(ctx, "queue.*.stats")

	go func() {
		defer pubsub.Close() //nolint:errcheck
		channel := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-channel:
				if !ok {
					return
				}
				var stats events.QueueStats
				if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
					logger.Warn("malformed stats payload", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				logger.Info("queue stats",
					zap.String("department_id", stats.DepartmentID),
					zap.Int("waiting", stats.WaitingCount),
					zap.Int("queue_length", stats.QueueLength),
					zap.Float64("avg_wait_minutes", stats.AverageWaitMinutes))
			}
		}
	}()
}
