package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const contentUpdatedChannel = "content-updated"

// RedisBroadcaster distributes the content-updated signal across replicas
// via Redis pub/sub.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(addr, password string) *RedisBroadcaster {
	return &RedisBroadcaster{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
	}
}

func (b *RedisBroadcaster) ContentUpdated(ctx context.Context) error {
	if err := b.client.Publish(ctx, contentUpdatedChannel, "").Err(); err != nil {
		return fmt.Errorf("publish content-updated: %w", err)
	}
	return nil
}

func (b *RedisBroadcaster) SubscribeContentUpdated(ctx context.Context) (<-chan struct{}, error) {
	sub := b.client.Subscribe(ctx, contentUpdatedChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe content-updated: %w", err)
	}
	out := make(chan struct{}, 1)
	go func() {
		defer sub.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Channel():
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
