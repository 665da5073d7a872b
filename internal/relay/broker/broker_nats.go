package broker

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type NatsBroker struct {
	nc *nats.Conn
}

// NewNatsBroker connects under a fresh per-process identity, the equivalent of
// a random consumer group: every relay instance gets its own full copy of the
// topic instead of competing for records.
func NewNatsBroker(url string, opts ...nats.Option) (*NatsBroker, error) {
	opts = append(opts, nats.Name("relay-"+uuid.NewString()))
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsBroker{nc: nc}, nil
}

// Publish appends one record. NATS subjects have no partitions, so key is
// accepted for interface parity and ignored.
func (b *NatsBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return b.nc.Publish(topicToSubject(topic), payload)
}

// natsSub guards the delivery channel: Unsubscribe does not wait out an
// in-flight callback, so offer and shut share one mutex to keep a send from
// hitting the closed channel.
type natsSub struct {
	mu     sync.Mutex
	out    chan Record
	closed bool
}

func (s *natsSub) offer(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// at-most-once：慢消费者直接丢，避免把 NATS 回调卡死
	select {
	case s.out <- rec:
	default:
	}
}

func (s *natsSub) shut() {
	s.mu.Lock()
	s.closed = true
	close(s.out)
	s.mu.Unlock()
}

func (b *NatsBroker) Subscribe(ctx context.Context, topic string) (<-chan Record, error) {
	ns := &natsSub{out: make(chan Record, 8192)}

	subj := topicToSubject(topic)
	sub, err := b.nc.Subscribe(subj, func(m *nats.Msg) {
		ns.offer(Record{Key: topic, Payload: m.Data})
	})
	if err != nil {
		return nil, err
	}

	// 监听 ctx.Done 清理
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
		ns.shut()
	}()

	return ns.out, nil
}

func (b *NatsBroker) Close() error {
	if b.nc != nil {
		b.nc.Drain()
		b.nc.Close()
	}
	return nil
}

// topic names use "-" freely ("chat-room"); only "." needs mapping on NATS
func topicToSubject(topic string) string { return strings.ReplaceAll(topic, ".", "_") }
