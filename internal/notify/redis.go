package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const changeChannel = "lingora:changes"

// Redis is a Notifier backed by Redis pub/sub, fanning change events
// out across service instances.
type Redis struct {
	client *redis.Client
	local  *Local
	pubsub *redis.PubSub
	logger zerolog.Logger
	done   chan struct{}
}

// NewRedis creates a Redis-backed notifier and starts its receive loop.
func NewRedis(client *redis.Client, logger zerolog.Logger) *Redis {
	r := &Redis{
		client: client,
		local:  NewLocal(),
		pubsub: client.Subscribe(context.Background(), changeChannel),
		logger: logger.With().Str("component", "notify").Logger(),
		done:   make(chan struct{}),
	}
	go r.receive()
	return r
}

// Publish broadcasts the change to every subscribed instance,
// including this one.
func (r *Redis) Publish(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := r.client.Publish(ctx, changeChannel, data).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe registers a handler for changes from all instances.
func (r *Redis) Subscribe(handler Handler) func() {
	return r.local.Subscribe(handler)
}

// Close stops the receive loop and the subscription.
func (r *Redis) Close() error {
	close(r.done)
	if err := r.pubsub.Close(); err != nil {
		return err
	}
	return r.local.Close()
}

func (r *Redis) receive() {
	ch := r.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				r.logger.Warn().Err(err).Msg("Dropping malformed change event")
				continue
			}
			_ = r.local.Publish(context.Background(), change)
		case <-r.done:
			return
		}
	}
}
