package chat

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"tutoria-backend/internal/models"
)

// ConnUpdatesChannel returns the pub/sub channel carrying delivery events
// for one WebSocket connection.
func ConnUpdatesChannel(connectionID string) string {
	return "conn_updates:" + connectionID
}

// RedisChannel delivers turn events over Redis pub/sub to the hub goroutine
// subscribed for the originating connection.
type RedisChannel struct {
	client       *redis.Client
	connectionID string
}

func NewRedisChannel(client *redis.Client, connectionID string) *RedisChannel {
	return &RedisChannel{client: client, connectionID: connectionID}
}

func (c *RedisChannel) Deliver(ctx context.Context, event models.DeliveryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, ConnUpdatesChannel(c.connectionID), data).Err()
}
