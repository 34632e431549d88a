package emitter

import (
	"slices"
	"sync"
)

// Registry resolves shapes by ID. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	shapes map[ID]*Shape
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{shapes: make(map[ID]*Shape)}
}

// Register adds or replaces a shape under its ID.
func (r *Registry) Register(s *Shape) {
	r.mu.Lock()
	r.shapes[s.ID] = s
	r.mu.Unlock()
}

// Lookup returns the shape with the given ID.
func (r *Registry) Lookup(id ID) (*Shape, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shapes[id]
	return s, ok
}

// Remove deletes a shape.
func (r *Registry) Remove(id ID) {
	r.mu.Lock()
	delete(r.shapes, id)
	r.mu.Unlock()
}

// IDs returns the registered IDs in ascending order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.shapes))
	for id := range r.shapes {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}
