// Package events fans service events out to in-process subscribers and
// WebSocket clients.
package events

import (
	"sync"
	"time"
)

// Event types.
const (
	TranslationUpdated = "translation_updated"
	PollCompleted      = "poll_completed"
	AppUpdateAvailable = "app_update_available"
	ServiceState       = "service_state"
)

// Event is one message on the stream.
type Event struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

// TranslationUpdate is the payload of TranslationUpdated. Version is the
// channel name, the key the UI listens on.
type TranslationUpdate struct {
	Version string `json:"version"`
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

const replaySize = 32

// Hub broadcasts events. Publish never blocks: a subscriber whose buffer is
// full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	recent []Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish stamps ev and delivers it to every subscriber.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, ev)
	if len(h.recent) > replaySize {
		h.recent = h.recent[len(h.recent)-replaySize:]
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of future events and a cancel func that
// closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	_, ch, cancel := h.subscribe(buffer)
	return ch, cancel
}

// subscribe registers a subscriber and snapshots the replay buffer atomically,
// so no event is both replayed and delivered.
func (h *Hub) subscribe(buffer int) ([]Event, <-chan Event, func()) {
	ch := make(chan Event, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	replay := append([]Event(nil), h.recent...)
	h.mu.Unlock()

	var once sync.Once
	return replay, ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns a copy of the last published events, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.recent...)
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
