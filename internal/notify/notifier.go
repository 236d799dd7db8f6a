// Package notify carries the cross-view signals of the system: the
// content-updated broadcast the navigation shell listens to, and
// consultation lifecycle events published for downstream consumers.
package notify

import (
	"context"
	"sync"
)

// Broadcaster delivers the payload-less content-updated signal to all
// subscribers. Delivery is best-effort; a slow subscriber misses signals
// rather than blocking the publisher.
type Broadcaster interface {
	ContentUpdated(ctx context.Context) error
	SubscribeContentUpdated(ctx context.Context) (<-chan struct{}, error)
}

// MemoryBroadcaster delivers signals in-process; dev/test backend beside
// the Redis implementation.
type MemoryBroadcaster struct {
	mu   sync.Mutex
	subs []chan struct{}
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

func (b *MemoryBroadcaster) ContentUpdated(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *MemoryBroadcaster) SubscribeContentUpdated(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
	}()
	return ch, nil
}
