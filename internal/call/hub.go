package call

import "sync"

const subscriberBuffer = 64

// Hub fans state changes of one call out to its subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan State]struct{}
	last    State
}

// NewHub creates a hub seeded with the initial state.
func NewHub(initial State) *Hub {
	return &Hub{clients: make(map[chan State]struct{}), last: initial}
}

// Subscribe registers a new subscriber and returns it with the latest state.
func (h *Hub) Subscribe() (chan State, State) {
	ch := make(chan State, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	last := h.last
	h.mu.Unlock()
	return ch, last
}

// Unsubscribe removes and closes ch.
func (h *Hub) Unsubscribe(ch chan State) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish records s and delivers it to every subscriber that has room.
func (h *Hub) Publish(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = s
	for ch := range h.clients {
		select {
		case ch <- s:
		default:
		}
	}
}

// Latest returns the most recently published state.
func (h *Hub) Latest() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
