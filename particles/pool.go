package particles

// Pool is fixed-capacity particle storage. Alive particles occupy the front
// of the slice in spawn order.
type Pool struct {
	items []Particle
}

// NewPool creates a pool holding at most capacity particles.
func NewPool(capacity int) *Pool {
	return &Pool{items: make([]Particle, 0, capacity)}
}

// Len returns the number of alive particles.
func (p *Pool) Len() int { return len(p.items) }

// Cap returns the maximum number of particles.
func (p *Pool) Cap() int { return cap(p.items) }

// Free returns the number of particles that can still be spawned.
func (p *Pool) Free() int { return cap(p.items) - len(p.items) }

// Spawn claims a zeroed particle, or returns nil when full.
func (p *Pool) Spawn() *Particle {
	n := len(p.items)
	if n == cap(p.items) {
		return nil
	}
	p.items = p.items[:n+1]
	p.items[n] = Particle{}
	return &p.items[n]
}

// Alive returns the alive particles. The slice is invalidated by Spawn,
// Compact, Clear and Resize.
func (p *Pool) Alive() []Particle { return p.items }

// Compact removes every particle for which dead returns true, keeping the
// survivors in order, and returns how many were removed. onRemove, when not
// nil, sees each removed particle first.
func (p *Pool) Compact(dead func(*Particle) bool, onRemove func(*Particle)) int {
	alive := 0
	for i := range p.items {
		q := &p.items[i]
		if dead(q) {
			if onRemove != nil {
				onRemove(q)
			}
			continue
		}
		if alive != i {
			p.items[alive] = *q
		}
		alive++
	}
	removed := len(p.items) - alive
	p.items = p.items[:alive]
	return removed
}

// Clear removes all particles.
func (p *Pool) Clear() {
	p.items = p.items[:0]
}

// Resize changes the capacity, dropping all particles.
func (p *Pool) Resize(capacity int) {
	if capacity == cap(p.items) {
		p.Clear()
		return
	}
	p.items = make([]Particle, 0, capacity)
}
