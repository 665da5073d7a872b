package session

import (
	"context"
	"net/http"
	"time"

	"chatrelay.com/internal/relay/broker"
	"chatrelay.com/internal/relay/hub"
	"chatrelay.com/internal/relay/ledger"
	"chatrelay.com/internal/relay/message"
	"chatrelay.com/internal/relay/metrics"
	"chatrelay.com/pkg/logger"
	"chatrelay.com/pkg/safe"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server upgrades client connections and runs one Session per connection: an
// outbound flow (hub → client) and an inbound flow (client → enrich → publish
// → local echo), paired under one cancellable ctx so that whichever flow ends
// first tears the other down.
type Server struct {
	Hub    *hub.Hub
	Ledger *ledger.Ledger
	Broker broker.Broker
	Topic  string
	Key    string

	WriteTimeout   time.Duration
	PublishTimeout time.Duration

	// EchoRequiresPublish suppresses the local echo when the broker publish
	// fails. Off by default: the base behavior is fire-and-forget, the client
	// sees its message immediately regardless of broker health.
	EchoRequiresPublish bool
}

func NewServer(h *hub.Hub, l *ledger.Ledger, b broker.Broker, topic, key string) *Server {
	return &Server{
		Hub:            h,
		Ledger:         l,
		Broker:         b,
		Topic:          topic,
		Key:            key,
		WriteTimeout:   2 * time.Second,
		PublishTimeout: 5 * time.Second,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 聊天客户端来自任意 Origin
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx := context.WithValue(r.Context(), logger.ConnIdKey, uuid.NewString())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(sub)

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	logger.Info(ctx, "session open")
	defer logger.Info(ctx, "session closed")

	// 入站 flow：读循环退出（断开/读错误）就 cancel，出站 flow 跟着停
	safe.GoCtx(ctx, func(ctx context.Context) {
		defer cancel()
		s.readLoop(ctx, conn)
	})

	// 出站 flow 在 handler 协程里跑；返回时 defer cancel 让读循环解除阻塞
	s.writeLoop(ctx, conn, sub)
}

// writeLoop delivers every hub payload to the client as one text frame.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sub *hub.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-sub.Chan():
			if !ok {
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, s.WriteTimeout)
			err := conn.Write(wctx, websocket.MessageText, p)
			wcancel()
			if err != nil {
				return
			}
		}
	}
}

// readLoop accepts client frames until disconnect or read error.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, raw, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		s.relay(ctx, raw)
	}
}

// relay is the inbound path for one frame, in strict order:
// decode → enrich → mark seen → broker publish → local echo.
func (s *Server) relay(ctx context.Context, raw []byte) {
	env, err := message.Decode(raw)
	if err != nil {
		// malformed input is dropped silently; the loop continues
		metrics.MalformedDropped.WithLabelValues("client").Inc()
		logger.Debug(ctx, "drop malformed frame", zap.Error(err))
		return
	}

	id, payload, err := env.Enrich(time.Now())
	if err != nil {
		metrics.MalformedDropped.WithLabelValues("client").Inc()
		logger.Debug(ctx, "drop unencodable frame", zap.Error(err))
		return
	}

	// seen before publish: if the bridge reads this message back before we
	// return, it is already recognized and not redelivered
	s.Ledger.MarkSeen(id)

	pctx, pcancel := context.WithTimeout(ctx, s.PublishTimeout)
	perr := s.Broker.Publish(pctx, s.Topic, s.Key, payload)
	pcancel()
	if perr != nil {
		metrics.PublishErrors.Inc()
		logger.Warn(ctx, "broker publish failed", zap.String("id", id), zap.Error(perr))
		if s.EchoRequiresPublish {
			return
		}
	}

	// immediate local echo: the originator and all co-located sessions see the
	// message without waiting on the broker round-trip
	s.Hub.Publish(payload)
	metrics.MessagesRelayed.Inc()
}
