package events

import (
	"encoding/json"
	"sync"
)

// Topics published by the generation core.
const (
	TopicStatus  = "status"
	TopicCredits = "credits"
	TopicHistory = "history"
)

// Event is one published message.
type Event struct {
	Topic string
	Data  []byte
}

// Hub fans out core events (generation status, balance changes, history
// appends) to subscribers. Subscribers that stop reading are skipped
// rather than blocking the publisher; the UI can always re-read current
// state over the plain endpoints.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered channel receiving every published
// event. The caller owns the channel and must call Unsubscribe before
// abandoning it; the hub never closes it.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Publish broadcasts data to all subscribers, dropping the event for
// any subscriber whose buffer is full.
func (h *Hub) Publish(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- Event{Topic: topic, Data: data}:
		default:
		}
	}
}

// PublishJSON marshals v and broadcasts it. Marshal failures are
// silently dropped; event payloads are plain structs that cannot fail
// to encode.
func (h *Hub) PublishJSON(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.Publish(topic, data)
}
