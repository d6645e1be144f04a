package watchlist

import "sync"

// Observer receives the full snapshot after every change to a Store.
type Observer func(Snapshot)

type subscription struct {
	id int
	fn Observer
}

// Store holds one session's watchlist. Mutations are serialized and every
// change swaps in a new snapshot before observers run, so an observer never
// sees a half-applied add or remove.
type Store struct {
	writeMu sync.Mutex // serializes mutations and their notifications

	mu        sync.RWMutex
	items     Snapshot
	index     map[int]struct{}
	observers []subscription
	nextSubID int

	done      chan struct{}
	closeOnce sync.Once
}

// NewStore returns an empty watchlist.
func NewStore() *Store {
	return &Store{
		items: Snapshot{},
		index: make(map[int]struct{}),
		done:  make(chan struct{}),
	}
}

// Add appends movie unless a record with the same id is already present, in
// which case the stored data is left untouched. It reports whether the movie
// was appended. Observers are notified synchronously after an append.
// A zero id is a caller bug and panics.
func (s *Store) Add(movie Movie) bool {
	if movie.ID == 0 {
		panic("watchlist: Add called with a movie that has no id")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if _, ok := s.index[movie.ID]; ok {
		s.mu.Unlock()
		return false
	}
	next := make(Snapshot, len(s.items), len(s.items)+1)
	copy(next, s.items)
	next = append(next, Snapshot{movie}.clone()...)
	s.items = next
	s.index[movie.ID] = struct{}{}
	observers := append([]subscription(nil), s.observers...)
	s.mu.Unlock()

	s.notify(observers, next)
	return true
}

// Remove deletes the movie with the given id. Removing an id that is not
// present is a no-op and does not notify observers.
func (s *Store) Remove(id int) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return false
	}
	next := make(Snapshot, 0, len(s.items)-1)
	for _, m := range s.items {
		if m.ID != id {
			next = append(next, m)
		}
	}
	s.items = next
	delete(s.index, id)
	observers := append([]subscription(nil), s.observers...)
	s.mu.Unlock()

	s.notify(observers, next)
	return true
}

// List returns a copy of the current snapshot in insertion order.
func (s *Store) List() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.clone()
}

// Contains reports whether a movie with the given id is saved.
func (s *Store) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Len returns the number of saved movies.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn to run after every change, in registration order.
// The returned function removes the registration and is safe to call more
// than once. fn must not mutate this store.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		panic("watchlist: Subscribe called with a nil observer")
	}

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.observers {
				if sub.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Done is closed once the owning session has ended.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

func (s *Store) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Each observer receives its own copy of snap.
func (s *Store) notify(observers []subscription, snap Snapshot) {
	for _, sub := range observers {
		sub.fn(snap.clone())
	}
}
