package events

import (
	"testing"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish(TopicStatus, []byte(`{"status":"generating"}`))

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Topic != TopicStatus || string(ev.Data) != `{"status":"generating"}` {
				t.Fatalf("event = %+v", ev)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	h.Publish(TopicCredits, []byte(`{"balance":10}`))
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event after unsubscribe: %+v", ev)
	default:
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	// Overflow the buffer; Publish must not block.
	for i := 0; i < 64; i++ {
		h.Publish(TopicHistory, []byte(`{}`))
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered = %d, want full buffer %d", len(ch), cap(ch))
	}
}

func TestPublishJSON(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	h.PublishJSON(TopicCredits, map[string]int{"balance": 500})
	ev := <-ch
	if string(ev.Data) != `{"balance":500}` {
		t.Fatalf("data = %s", ev.Data)
	}
}
