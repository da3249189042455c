package cache

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// ChangeChannel is the Redis pub/sub channel carrying change events.
const ChangeChannel = "gonet:events:data_updated"

// ChangeEvent is published after every store write. Origin identifies the
// publishing process so it can ignore its own events.
type ChangeEvent struct {
	Origin string `json:"origin"`
	Key    string `json:"key,omitempty"`
}

// Publish sends a change event.
func (r *Redis) Publish(ctx context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pubsub marshal: %w", err)
	}
	return r.client.Publish(ctx, ChangeChannel, data).Err()
}

// Listen delivers change events published by other origins to fn until ctx
// is cancelled. Malformed messages are skipped.
func (r *Redis) Listen(ctx context.Context, origin string, fn func(ChangeEvent)) error {
	sub := r.client.Subscribe(ctx, ChangeChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("pubsub subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn().Err(err).Msg("pubsub: malformed event")
				continue
			}
			if ev.Origin == origin {
				continue
			}
			fn(ev)
		}
	}
}
