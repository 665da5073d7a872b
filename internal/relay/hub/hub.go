package hub

import (
	"sync"

	"chatrelay.com/internal/relay/metrics"
)

const DefaultBacklog = 100

// Subscriber is one local receiver. Its view starts at the moment of
// subscription; there is no replay.
type Subscriber struct {
	ch chan []byte
}

func (s *Subscriber) Chan() <-chan []byte { return s.ch }

// Hub is the single local broadcast point: every published payload goes to all
// current subscribers. It knows nothing about connections or the broker.
type Hub struct {
	mu    sync.RWMutex
	subs  map[*Subscriber]struct{}
	qsize int
}

func New(backlog int) *Hub {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Hub{
		subs:  make(map[*Subscriber]struct{}, 64),
		qsize: backlog,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan []byte, h.qsize)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	if ok {
		delete(h.subs, s)
	}
	h.mu.Unlock()
	if ok {
		close(s.ch)
	}
}

// Publish never blocks the caller. A subscriber whose backlog is full loses
// its oldest buffered payload to make room for the new one — lagging receivers
// fall behind, the publisher does not.
//
// Send and close cannot overlap: sends hold RLock and only reach channels
// still in the map; Unsubscribe removes s under the write lock before closing,
// so no in-flight Publish can still hold the channel.
func (h *Hub) Publish(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- payload:
			continue
		default:
		}
		// full: drop oldest, retry once
		select {
		case <-s.ch:
			metrics.BacklogEvictions.Inc()
		default:
		}
		select {
		case s.ch <- payload:
		default:
		}
	}
}

// Len is the current subscriber count.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
