// Package components defines the ECS components of the scene graph.
package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/particles"
	"github.com/pthm-cable/swirl/vortex"
)

// NodeKind tags the payload a scene node carries.
type NodeKind uint8

const (
	KindGroup NodeKind = iota
	KindParticleSystem
	KindEmitter
)

var kindNames = [...]string{"group", "particle_system", "emitter"}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node identifies an entity in the hierarchy. Exactly one payload
// component matching Kind is attached alongside it, none for groups.
type Node struct {
	Name      string     `inspect:"label"`
	Kind      NodeKind   `inspect:"label"`
	Parent    ecs.Entity `inspect:"skip"`
	HasParent bool       `inspect:"skip"`
	Depth     int        `inspect:"skip"`
}

// Transform holds the local matrix and the world matrix derived from
// the parent chain.
type Transform struct {
	Local mgl64.Mat4 `inspect:"skip"`
	World mgl64.Mat4 `inspect:"skip"`
}

// ParticleSystem is the payload of a particle system node.
type ParticleSystem struct {
	System    *particles.System
	Autostart bool

	// Anchors are static vortices in system-local space. Placed is the
	// world matrix they were last placed with.
	Anchors []VortexAnchor `inspect:"skip"`
	Placed  mgl64.Mat4     `inspect:"skip"`
}

// VortexAnchor pins a free-standing vortex to its system's frame.
type VortexAnchor struct {
	ID       vortex.ID
	Position r3.Vec
	Axis     r3.Vec
}

// Emitter is the payload of an emitter node.
type Emitter struct {
	Shape *emitter.Shape
}

// SystemInfo is a per-tick summary of a particle system node, kept for
// panels that read components by reflection.
type SystemInfo struct {
	State     string  `inspect:"label"`
	Alive     int     `inspect:"label"`
	Capacity  int     `inspect:"label"`
	Fill      float64 `inspect:"bar"`
	SimTime   float64 `inspect:"label,fmt:%.2fs"`
	Vortices  int     `inspect:"label"`
	Radius    float64 `inspect:"label,fmt:%.2f"`
	Sequence  uint64  `inspect:"label"`
	Spawned   uint64  `inspect:"label"`
	Dropped   uint64  `inspect:"label"`
	Clamps    uint64  `inspect:"label"`
	LastError string  `inspect:"label"`
	Draining  bool    `inspect:"bool"`
}
