package notify

import (
	"context"
	"sync"

	"runmatch/pkg/types"
)

// Bus is the in-process publisher: subscribers get every event on a
// buffered channel. A slow subscriber loses events rather than
// blocking dispatch.
type Bus struct {
	mu   sync.RWMutex
	subs []chan types.Event
}

// NewBus creates an empty in-process event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new listener. The returned channel is never
// closed; callers stop reading when they are done.
func (b *Bus) Subscribe() <-chan types.Event {
	ch := make(chan types.Event, 64)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *Bus) Publish(ctx context.Context, ev types.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}
