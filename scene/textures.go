package scene

import (
	"maps"
	"slices"
	"sync"

	"github.com/pthm-cable/swirl/particles"
)

// TextureSet maps declared texture IDs to image paths. Systems only check
// that an ID is declared; loading is left to the renderer.
type TextureSet struct {
	mu    sync.RWMutex
	paths map[particles.TextureID]string
}

// NewTextureSet creates an empty set.
func NewTextureSet() *TextureSet {
	return &TextureSet{paths: make(map[particles.TextureID]string)}
}

// Declare adds or replaces a texture.
func (t *TextureSet) Declare(id particles.TextureID, path string) {
	t.mu.Lock()
	t.paths[id] = path
	t.mu.Unlock()
}

// HasTexture implements particles.TextureSource.
func (t *TextureSet) HasTexture(id particles.TextureID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.paths[id]
	return ok
}

// Path returns the image path of a texture.
func (t *TextureSet) Path(id particles.TextureID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.paths[id]
	return p, ok
}

// IDs returns the declared IDs sorted.
func (t *TextureSet) IDs() []particles.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.paths))
}
