package broker

import (
	"context"
	"sync"
)

// MemBroker is an in-process stand-in for the real topic, used by tests and
// single-node runs. Same contract: subscribers see only what is published
// after they subscribe, and slow subscribers lose records rather than block
// the publisher.
type MemBroker struct {
	mu   sync.RWMutex
	subs map[string][]chan Record
}

func NewMemBroker() *MemBroker {
	return &MemBroker{subs: make(map[string][]chan Record)}
}

// Publish sends while holding the read lock; cancelled subscriptions are
// removed and closed under the write lock, so a send can never hit a closed
// channel.
func (b *MemBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec := Record{Key: key, Payload: payload}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- rec:
		default:
		}
	}
	return nil
}

func (b *MemBroker) Subscribe(ctx context.Context, topic string) (<-chan Record, error) {
	ch := make(chan Record, 4096)
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		list := b.subs[topic]
		for i, c := range list {
			if c == ch {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

func (b *MemBroker) Close() error { return nil }
