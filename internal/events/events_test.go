package events

import (
	"context"
	"testing"
	"time"
)

func TestLocalPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewLocal()
	ch := bus.Subscribe(ctx)

	ev := &Event{Type: LinkAccepted, SuggestionID: "c1-w1"}
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ev.ID == "" || ev.Timestamp.IsZero() {
		t.Errorf("publish should stamp id and timestamp, got %+v", ev)
	}

	select {
	case got := <-ch:
		if got.SuggestionID != "c1-w1" || got.Type != LinkAccepted {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestLocalUnsubscribeOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewLocal()
	ch := bus.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after unsubscribe must not panic.
	if err := bus.Publish(context.Background(), &Event{Type: SuggestionDismissed}); err != nil {
		t.Errorf("publish: %v", err)
	}
}

func TestLocalSlowSubscriberDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewLocal()
	bus.Subscribe(ctx) // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(ctx, &Event{Type: LinkAccepted})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
