package store

import (
	"context"

	"github.com/voyagen/gonet/internal/cache"
)

// Publisher sends change events to other processes.
type Publisher interface {
	Publish(ctx context.Context, ev cache.ChangeEvent) error
}

// PublishNotifier is a Notifier that publishes every change with a fixed origin.
type PublishNotifier struct {
	pub    Publisher
	origin string
}

// NewPublishNotifier returns a Notifier publishing through pub as origin.
func NewPublishNotifier(pub Publisher, origin string) *PublishNotifier {
	return &PublishNotifier{pub: pub, origin: origin}
}

func (n *PublishNotifier) NotifyChange(ctx context.Context, key Key) error {
	return n.pub.Publish(ctx, cache.ChangeEvent{Origin: n.origin, Key: string(key)})
}
