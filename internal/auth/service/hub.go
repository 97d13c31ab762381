package service

import (
	"sync"

	"cartera/internal/auth/models"
)

// Callback receives auth state transitions. Callbacks run synchronously on
// the publishing goroutine; subscribers must not block.
type Callback func(event models.AuthEvent, session *models.Session)

// Subscription is a handle to an auth-state subscription. Unsubscribe is
// idempotent and must be called when the owning flow is torn down so a
// stale flow never acts on later events.
type Subscription struct {
	hub  *Hub
	id   uint64
	once sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

// Hub fans auth state changes out to subscribers. It backs the
// onAuthStateChange boundary the claim flow relies on.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]Callback
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]Callback)}
}

// Subscribe registers a callback for future auth events.
func (h *Hub) Subscribe(cb Callback) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	subID := h.nextID
	h.subs[subID] = cb
	return &Subscription{hub: h, id: subID}
}

// Publish delivers an event to every current subscriber.
func (h *Hub) Publish(event models.AuthEvent, session *models.Session) {
	h.mu.Lock()
	callbacks := make([]Callback, 0, len(h.subs))
	for _, cb := range h.subs {
		callbacks = append(callbacks, cb)
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		cb(event, session)
	}
}

func (h *Hub) remove(subID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, subID)
}
