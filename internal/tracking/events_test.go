package tracking

import (
	"testing"
	"time"
)

func TestBrokerPublish(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(1)
	defer sub.Close()

	b.Publish(Event{Kind: EventSessionStarted, SessionID: 3})

	select {
	case ev := <-sub.C:
		if ev.Kind != EventSessionStarted || ev.SessionID != 3 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for event")
	}
}

func TestBrokerDropsWhenNotListening(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(1)
	defer sub.Close()

	b.Publish(Event{Kind: EventSessionStarted})
	b.Publish(Event{Kind: EventSessionPaused})

	ev := <-sub.C
	if ev.Kind != EventSessionStarted {
		t.Fatalf("expected first event, got %s", ev.Kind)
	}
	select {
	case ev := <-sub.C:
		t.Fatalf("expected second event to be dropped, got %s", ev.Kind)
	default:
	}
}

func TestBrokerUnbufferedSubscriberMissesEvents(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(0)
	defer sub.Close()

	b.Publish(Event{Kind: EventSessionStarted})
	select {
	case <-sub.C:
		t.Fatalf("no receiver was waiting, event must be dropped")
	default:
	}
}

func TestSubscriptionClose(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(4)
	if b.Len() != 1 {
		t.Fatalf("expected one subscriber")
	}

	sub.Close()
	sub.Close()

	if _, ok := <-sub.C; ok {
		t.Fatalf("expected channel closed")
	}
	if b.Len() != 0 {
		t.Fatalf("expected no subscribers")
	}
	b.Publish(Event{Kind: EventSessionStopped})
}
