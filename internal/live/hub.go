// Package live fans card change signals out to subscribers of an owner's vault.
package live

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Hub is an in-process per-owner notifier. Signals carry no payload and
// coalesce: a slow subscriber sees at most one pending signal.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan struct{}]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan struct{}]struct{})}
}

// Subscribe registers interest in owner's changes. cancel closes the channel
// and is safe to call more than once.
func (h *Hub) Subscribe(owner uuid.UUID) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	set, ok := h.subs[owner]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[owner] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(set, ch)
			if len(h.subs[owner]) == 0 {
				delete(h.subs, owner)
			}
			close(ch)
		})
	}
}

// Publish signals every subscriber of owner without blocking.
func (h *Hub) Publish(owner uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[owner] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many subscriptions owner has.
func (h *Hub) Subscribers(owner uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}
