package particles

import (
	"log/slog"

	"github.com/pthm-cable/swirl/emitter"
)

// TextureID names a texture known to the renderer. The simulation only
// checks that it resolves.
type TextureID string

// EmitterSource resolves emitter references.
type EmitterSource interface {
	Lookup(id emitter.ID) (*emitter.Shape, bool)
}

// TextureSource resolves texture references.
type TextureSource interface {
	HasTexture(id TextureID) bool
}

// PhaseRecorder receives phase boundaries for profiling.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Context carries the collaborators a System resolves its references
// through. Textures and Perf are optional.
type Context struct {
	Emitters EmitterSource
	Textures TextureSource
	Perf     PhaseRecorder
	Logger   *slog.Logger
}

func (c Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Context) phase(name string) {
	if c.Perf != nil {
		c.Perf.StartPhase(name)
	}
}
