package broker

import (
	"context"
	"testing"
	"time"
)

func TestMemBroker_PublishReachesAllSubscribers(t *testing.T) {
	b := NewMemBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1, err := b.Subscribe(ctx, "chat-room")
	if err != nil {
		t.Fatalf("subscribe err=%v", err)
	}
	ch2, err := b.Subscribe(ctx, "chat-room")
	if err != nil {
		t.Fatalf("subscribe err=%v", err)
	}

	if err := b.Publish(ctx, "chat-room", "chat", []byte("hi")); err != nil {
		t.Fatalf("publish err=%v", err)
	}

	for i, ch := range []<-chan Record{ch1, ch2} {
		select {
		case rec := <-ch:
			if string(rec.Payload) != "hi" || rec.Key != "chat" {
				t.Fatalf("sub %d got %+v", i, rec)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub %d timed out", i)
		}
	}
}

func TestMemBroker_TopicsAreIsolated(t *testing.T) {
	b := NewMemBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := b.Subscribe(ctx, "chat-room")
	_ = b.Publish(ctx, "other-room", "chat", []byte("nope"))

	select {
	case rec := <-ch:
		t.Fatalf("crossed topics: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemBroker_CancelClosesSubscription(t *testing.T) {
	b := NewMemBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _ := b.Subscribe(ctx, "chat-room")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}

	// publishing after the subscriber left must not block or panic
	if err := b.Publish(context.Background(), "chat-room", "chat", []byte("late")); err != nil {
		t.Fatalf("publish err=%v", err)
	}
}

func TestMemBroker_ConcurrentPublishAndCancel(t *testing.T) {
	b := NewMemBroker()
	done := make(chan struct{})

	// 订阅/取消 与 Publish 并发：close 绝不能撞上正在发送的 send
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			ch, err := b.Subscribe(ctx, "chat-room")
			if err != nil {
				cancel()
				t.Errorf("subscribe err=%v", err)
				return
			}
			cancel()
			// drain until the cleanup goroutine closes the channel
			for range ch {
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		_ = b.Publish(context.Background(), "chat-room", "chat", []byte("p"))
	}
	<-done
}
