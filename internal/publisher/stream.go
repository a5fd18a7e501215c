package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream key game change events are written to
const DefaultStream = "games.changes"

// StreamPublisher publishes game events to a Redis Stream
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher creates a new stream publisher. An empty stream uses DefaultStream.
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
	}
}

// Publish appends one event to the stream
func (p *StreamPublisher) Publish(ctx context.Context, event models.GameEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal game event: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":  string(event.Type),
			"event": string(eventJSON),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	return nil
}
