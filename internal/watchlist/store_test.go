package watchlist

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movie(id int, title string) Movie {
	return Movie{ID: id, Title: title}
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.List())
	assert.NotNil(t, s.List())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(1))
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	require.True(t, s.Add(movie(3, "Heat")))
	require.True(t, s.Add(movie(1, "Alien")))
	require.True(t, s.Add(movie(2, "Brazil")))

	assert.Equal(t, []int{3, 1, 2}, s.List().IDs())
}

func TestAddDuplicateIsIgnored(t *testing.T) {
	s := NewStore()
	require.True(t, s.Add(movie(7, "Original")))

	var calls int
	s.Subscribe(func(Snapshot) { calls++ })

	assert.False(t, s.Add(movie(7, "Changed title")))
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Original", list[0].Title)
	assert.Zero(t, calls)
}

func TestRemoveAbsentLeavesListUnchanged(t *testing.T) {
	s := NewStore()
	s.Add(movie(1, "A"))
	s.Add(movie(2, "B"))

	var calls int
	s.Subscribe(func(Snapshot) { calls++ })

	assert.False(t, s.Remove(99))
	assert.Equal(t, []int{1, 2}, s.List().IDs())
	assert.Zero(t, calls)
}

func TestAddThenRemoveRestoresList(t *testing.T) {
	s := NewStore()
	s.Add(movie(1, "A"))
	s.Add(movie(2, "B"))
	before := s.List()

	require.True(t, s.Add(movie(5, "E")))
	require.True(t, s.Remove(5))
	assert.Equal(t, before, s.List())
}

func TestRemovePreservesOrderOfOthers(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 4; i++ {
		s.Add(movie(i, ""))
	}
	s.Remove(2)
	assert.Equal(t, []int{1, 3, 4}, s.List().IDs())
	assert.False(t, s.Contains(2))
}

func TestAddThenDuplicateThenRemove(t *testing.T) {
	s := NewStore()
	var seen [][]int
	s.Subscribe(func(snap Snapshot) { seen = append(seen, snap.IDs()) })

	s.Add(movie(1, "A"))
	s.Add(movie(2, "B"))
	s.Add(movie(1, "A again"))
	assert.Equal(t, []int{1, 2}, s.List().IDs())

	s.Remove(2)
	assert.Equal(t, []int{1}, s.List().IDs())

	assert.Equal(t, [][]int{{1}, {1, 2}, {1}}, seen)
}

// Random sequences of adds and removes must behave like an ordered set.
func TestStoreMatchesOrderedSetModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewStore()
	var model []int

	indexOf := func(id int) int {
		for i, v := range model {
			if v == id {
				return i
			}
		}
		return -1
	}

	for step := 0; step < 2000; step++ {
		id := rng.Intn(30) + 1
		if rng.Intn(3) == 0 {
			i := indexOf(id)
			assert.Equal(t, i >= 0, s.Remove(id))
			if i >= 0 {
				model = append(model[:i], model[i+1:]...)
			}
		} else {
			i := indexOf(id)
			assert.Equal(t, i < 0, s.Add(movie(id, "")))
			if i < 0 {
				model = append(model, id)
			}
		}

		ids := s.List().IDs()
		if len(model) == 0 {
			require.Empty(t, ids, "step %d", step)
		} else {
			require.Equal(t, model, ids, "step %d", step)
		}
	}
}

func TestObserversReceiveFullSnapshotInOrder(t *testing.T) {
	s := NewStore()
	s.Add(movie(1, "A"))

	var order []string
	var firstSnap, secondSnap Snapshot
	s.Subscribe(func(snap Snapshot) {
		order = append(order, "first")
		firstSnap = snap
	})
	s.Subscribe(func(snap Snapshot) {
		order = append(order, "second")
		secondSnap = snap
	})

	s.Add(movie(2, "B"))

	// notification completes before Add returns
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []int{1, 2}, firstSnap.IDs())
	assert.Equal(t, []int{1, 2}, secondSnap.IDs())
}

func TestObserverSeesCommittedState(t *testing.T) {
	s := NewStore()
	var contained bool
	s.Subscribe(func(Snapshot) { contained = s.Contains(4) })

	s.Add(movie(4, "D"))
	assert.True(t, contained)
}

func TestUnsubscribe(t *testing.T) {
	s := NewStore()
	var a, b int
	unsubA := s.Subscribe(func(Snapshot) { a++ })
	s.Subscribe(func(Snapshot) { b++ })

	s.Add(movie(1, ""))
	unsubA()
	unsubA()
	s.Add(movie(2, ""))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestListReturnsIndependentCopy(t *testing.T) {
	s := NewStore()
	s.Add(Movie{ID: 1, Title: "A", Genres: []Genre{{ID: 28, Name: "Action"}}})

	list := s.List()
	list[0].Title = "mutated"
	list[0].Genres[0].Name = "mutated"
	_ = append(list, movie(9, ""))

	fresh := s.List()
	assert.Equal(t, "A", fresh[0].Title)
	assert.Equal(t, "Action", fresh[0].Genres[0].Name)
	assert.Len(t, fresh, 1)
}

func TestObserverCopiesAreIndependent(t *testing.T) {
	s := NewStore()
	s.Subscribe(func(snap Snapshot) { snap[0].Title = "scribbled" })
	var got string
	s.Subscribe(func(snap Snapshot) { got = snap[0].Title })

	s.Add(movie(1, "Clean"))
	assert.Equal(t, "Clean", got)
	assert.Equal(t, "Clean", s.List()[0].Title)
}

func TestAddCopiesCallerData(t *testing.T) {
	s := NewStore()
	m := Movie{ID: 1, Title: "A", Genres: []Genre{{ID: 1, Name: "Drama"}}}
	s.Add(m)
	m.Genres[0].Name = "changed"
	assert.Equal(t, "Drama", s.List()[0].Genres[0].Name)
}

func TestZeroIDPanics(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() { s.Add(Movie{Title: "No id"}) })
	assert.Panics(t, func() { s.Subscribe(nil) })
}

func TestConcurrentAddsDeduplicate(t *testing.T) {
	s := NewStore()
	var notified int
	var mu sync.Mutex
	s.Subscribe(func(Snapshot) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := 1; id <= 50; id++ {
				s.Add(movie(id, ""))
				_ = s.List()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	seen := make(map[int]bool)
	for _, id := range s.List().IDs() {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 50, notified)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.For("session-a")
	assert.Same(t, a, r.For("session-a"))
	assert.NotSame(t, a, r.For("session-b"))
	assert.Equal(t, 2, r.Len())

	a.Add(movie(1, ""))
	got, ok := r.Lookup("session-a")
	require.True(t, ok)
	assert.True(t, got.Contains(1))

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	r.Discard("session-a", "missing")
	select {
	case <-a.Done():
	default:
		t.Fatal("discarded store should be closed")
	}
	_, ok = r.Lookup("session-a")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())

	// a later login gets a fresh, empty list
	assert.Equal(t, 0, r.For("session-a").Len())
}
