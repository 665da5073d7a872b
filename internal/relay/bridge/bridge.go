package bridge

import (
	"context"

	"chatrelay.com/internal/relay/broker"
	"chatrelay.com/internal/relay/hub"
	"chatrelay.com/internal/relay/ledger"
	"chatrelay.com/internal/relay/message"
	"chatrelay.com/internal/relay/metrics"
	"chatrelay.com/pkg/logger"
	"chatrelay.com/pkg/safe"
	"go.uber.org/zap"
)

// Bridge feeds broker records back into the local hub. It only consumes —
// sessions publish, the bridge redistributes. The ledger check here is what
// breaks the publish→subscribe→rebroadcast loop: a session's own message comes
// back from the broker already marked seen and goes no further.
type Bridge struct {
	broker broker.Broker
	ledger *ledger.Ledger
	hub    *hub.Hub
	topic  string
}

func New(b broker.Broker, l *ledger.Ledger, h *hub.Hub, topic string) *Bridge {
	return &Bridge{broker: b, ledger: l, hub: h, topic: topic}
}

// Start subscribes synchronously — a failed subscription is returned to the
// caller, who treats it as fatal — then pumps records until ctx is done.
// Once running, bad records are dropped and the pump never stops.
func (b *Bridge) Start(ctx context.Context) error {
	ch, err := b.broker.Subscribe(ctx, b.topic)
	if err != nil {
		return err
	}
	logger.Info(ctx, "bridge subscribed", zap.String("topic", b.topic))

	safe.GoCtx(ctx, func(ctx context.Context) {
		b.pump(ctx, ch)
	})
	return nil
}

func (b *Bridge) pump(ctx context.Context, ch <-chan broker.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			b.handle(rec)
		}
	}
}

func (b *Bridge) handle(rec broker.Record) {
	// malformed records and records without an id are dropped, not fatal
	id, ok := message.PeekID(rec.Payload)
	if !ok {
		metrics.MalformedDropped.WithLabelValues("broker").Inc()
		return
	}
	if !b.ledger.MarkSeen(id) {
		// already delivered locally
		metrics.DuplicatesDropped.Inc()
		return
	}
	b.hub.Publish(rec.Payload)
	metrics.RecordsBridged.Inc()
}
