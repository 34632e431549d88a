package particles

import "sync"

// FinishedFunc is called once each time a system enters Finished.
type FinishedFunc func(s *System)

type finishedEntry struct {
	id uint64
	fn FinishedFunc
}

// finishedObservers is a handle based callback list, safe for concurrent
// subscribe and unsubscribe.
type finishedObservers struct {
	mu      sync.Mutex
	nextID  uint64
	entries []finishedEntry
}

// Subscription cancels a callback registration.
type Subscription struct {
	id   uint64
	list *finishedObservers
}

// Unsubscribe removes the callback. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.list == nil {
		return
	}
	s.list.remove(s.id)
}

func (o *finishedObservers) add(fn FinishedFunc) Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.entries = append(o.entries, finishedEntry{id: o.nextID, fn: fn})
	return Subscription{id: o.nextID, list: o}
}

func (o *finishedObservers) remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e.id == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return
		}
	}
}

// notify calls a snapshot of the callbacks outside the lock, so callbacks
// may subscribe or unsubscribe.
func (o *finishedObservers) notify(s *System) {
	o.mu.Lock()
	fns := make([]FinishedFunc, len(o.entries))
	for i, e := range o.entries {
		fns[i] = e.fn
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (o *finishedObservers) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}
