package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const EventsChannel = "torusgo:events"

// RedisBroker relays events through redis pub/sub so every server instance
// delivers them to its own subscribers.
type RedisBroker struct {
	logger *slog.Logger
	client *redis.Client
	hub    *Hub
	ready  chan struct{}
}

func NewRedisBroker(logger *slog.Logger, client *redis.Client, hub *Hub) *RedisBroker {
	return &RedisBroker{
		logger: logger.With("component", "redis_broker"),
		client: client,
		hub:    hub,
		ready:  make(chan struct{}),
	}
}

func (that *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Ready is closed once Run is subscribed.
func (that *RedisBroker) Ready() <-chan struct{} {
	return that.ready
}

// Run forwards events from redis to the local hub until ctx is done.
func (that *RedisBroker) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	pubsub := that.client.Subscribe(ctx, EventsChannel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("failed to close subscription", "error", err)
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}
	close(that.ready)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("failed to unmarshal event", "error", err)
				continue
			}

			that.hub.Broadcast(event)
		}
	}
}
