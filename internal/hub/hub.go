// Package hub fans activity events out to the live subscribers of a user.
// Delivery is best effort: there is no buffering for offline subscribers.
package hub

import "sync"

// Sink receives serialized events for one subscriber. Implementations are
// expected to be safe for concurrent writes.
type Sink interface {
	Write(event []byte) error
	Close() error
}

// Subscriber ties a sink to the user whose events it receives.
type Subscriber struct {
	UserID string
	Sink   Sink
}

type Hub struct {
	mu   sync.RWMutex
	subs map[string][]*Subscriber
}

func New() *Hub {
	return &Hub{subs: make(map[string][]*Subscriber)}
}

func (h *Hub) Subscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs[sub.UserID] = append(h.subs[sub.UserID], sub)
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[sub.UserID]
	for i, s := range list {
		if s == sub {
			h.subs[sub.UserID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(h.subs[sub.UserID]) == 0 {
		delete(h.subs, sub.UserID)
	}
}

// Publish delivers the event to every live subscriber of the user. A sink
// whose write fails is closed and dropped; the event is not retried.
func (h *Hub) Publish(userID string, event []byte) {
	h.mu.RLock()
	targets := make([]*Subscriber, len(h.subs[userID]))
	copy(targets, h.subs[userID])
	h.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.Sink.Write(event); err != nil {
			_ = sub.Sink.Close()
			h.Unsubscribe(sub)
		}
	}
}
