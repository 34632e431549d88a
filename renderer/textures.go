package renderer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swirl/particles"
)

// TextureSource resolves texture IDs to image paths.
type TextureSource interface {
	Path(id particles.TextureID) (string, bool)
}

// TextureCache loads textures on first use. Textures that fail to load are
// replaced by a soft round sprite so that a bad path never blanks a system.
type TextureCache struct {
	src      TextureSource
	loaded   map[particles.TextureID]rl.Texture2D
	fallback rl.Texture2D
	hasFall  bool
}

// NewTextureCache creates a cache. It must be used after the window is open.
func NewTextureCache(src TextureSource) *TextureCache {
	return &TextureCache{src: src, loaded: make(map[particles.TextureID]rl.Texture2D)}
}

// Get returns the texture for id, loading it if needed.
func (c *TextureCache) Get(id particles.TextureID) rl.Texture2D {
	if id == "" {
		return c.Fallback()
	}
	if tex, ok := c.loaded[id]; ok {
		return tex
	}

	tex := c.Fallback()
	if path, ok := c.src.Path(id); ok {
		if t := rl.LoadTexture(path); t.ID != 0 {
			rl.SetTextureFilter(t, rl.FilterBilinear)
			tex = t
		} else {
			slog.Warn("texture load failed, using fallback", "texture", id, "path", path)
		}
	}
	c.loaded[id] = tex
	return tex
}

// Fallback returns the built-in radial sprite.
func (c *TextureCache) Fallback() rl.Texture2D {
	if !c.hasFall {
		img := rl.GenImageGradientRadial(64, 64, 0, rl.White, rl.Blank)
		c.fallback = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(c.fallback, rl.FilterBilinear)
		c.hasFall = true
	}
	return c.fallback
}

// Unload frees every texture.
func (c *TextureCache) Unload() {
	for id, tex := range c.loaded {
		if !c.hasFall || tex.ID != c.fallback.ID {
			rl.UnloadTexture(tex)
		}
		delete(c.loaded, id)
	}
	if c.hasFall {
		rl.UnloadTexture(c.fallback)
		c.hasFall = false
	}
}
