package watchlist

import (
	"log"
	"sync"
)

// Registry owns the watchlist of every live session. A session's store is
// created on first use and dropped when the session ends; nothing is
// persisted.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the store for sessionID, creating an empty one if needed.
func (r *Registry) For(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[sessionID]; ok {
		return s
	}
	s := NewStore()
	r.stores[sessionID] = s
	return s
}

// Lookup returns the store for sessionID without creating one.
func (r *Registry) Lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	return s, ok
}

// Discard ends the session's watchlist. Streams attached to it are closed.
func (r *Registry) Discard(sessionIDs ...string) {
	r.mu.Lock()
	var ended []*Store
	for _, id := range sessionIDs {
		if s, ok := r.stores[id]; ok {
			delete(r.stores, id)
			ended = append(ended, s)
		}
	}
	r.mu.Unlock()

	for _, s := range ended {
		s.close()
	}
	if len(ended) > 0 {
		log.Printf("Watchlist: discarded %d session watchlist(s)", len(ended))
	}
}

// Len returns the number of live session watchlists.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
