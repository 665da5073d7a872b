package hub

import (
	"fmt"
	"testing"
	"time"
)

func recvOne(t *testing.T, s *Subscriber) []byte {
	t.Helper()
	select {
	case p := <-s.Chan():
		return p
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for payload")
		return nil
	}
}

func TestHub_FanOutToAllSubscribers(t *testing.T) {
	h := New(16)
	subs := make([]*Subscriber, 3)
	for i := range subs {
		subs[i] = h.Subscribe()
	}

	h.Publish([]byte("hello"))

	for i, s := range subs {
		if got := string(recvOne(t, s)); got != "hello" {
			t.Fatalf("sub %d got %q", i, got)
		}
	}
}

func TestHub_NoReplayBeforeSubscribe(t *testing.T) {
	h := New(16)
	h.Publish([]byte("early"))

	s := h.Subscribe()
	h.Publish([]byte("late"))

	if got := string(recvOne(t, s)); got != "late" {
		t.Fatalf("got %q, want late", got)
	}
	select {
	case p := <-s.Chan():
		t.Fatalf("unexpected extra payload %q", p)
	default:
	}
}

func TestHub_SlowSubscriberLosesOldest(t *testing.T) {
	h := New(2)
	s := h.Subscribe()

	for i := 0; i < 5; i++ {
		h.Publish([]byte(fmt.Sprintf("m%d", i)))
	}

	// backlog 2：应该只剩最新两条，最旧的被挤掉
	if got := string(recvOne(t, s)); got != "m3" {
		t.Fatalf("first got %q, want m3", got)
	}
	if got := string(recvOne(t, s)); got != "m4" {
		t.Fatalf("second got %q, want m4", got)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := New(4)
	s := h.Subscribe()
	h.Unsubscribe(s)

	if _, ok := <-s.Chan(); ok {
		t.Fatalf("channel should be closed")
	}
	if h.Len() != 0 {
		t.Fatalf("subscriber still registered")
	}

	// double unsubscribe must not panic
	h.Unsubscribe(s)
	// publish after unsubscribe must not panic either
	h.Publish([]byte("x"))
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	h := New(4)
	h.Publish([]byte("into the void")) // no-op, no panic
}

func TestHub_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	h := New(8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s := h.Subscribe()
			h.Unsubscribe(s)
		}
	}()

	for i := 0; i < 200; i++ {
		h.Publish([]byte("p"))
	}
	<-done
}
