package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayBounds   OverlayID = "bounds"
	OverlayVortices OverlayID = "vortices"
	OverlayGrid     OverlayID = "grid"
	OverlayPanel    OverlayID = "panel"
	OverlayPerf     OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32 // 0 = no key
	KeyLabel string
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the standard overlays.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	r.Register(OverlayDescriptor{ID: OverlayBounds, Name: "Bounds", Key: rl.KeyB, KeyLabel: "B"})
	r.Register(OverlayDescriptor{ID: OverlayVortices, Name: "Vortices", Key: rl.KeyV, KeyLabel: "V"})
	r.Register(OverlayDescriptor{ID: OverlayGrid, Name: "Grid", Key: rl.KeyG, KeyLabel: "G"})
	r.Register(OverlayDescriptor{ID: OverlayPanel, Name: "Panel", Key: rl.KeyTab, KeyLabel: "Tab"})
	r.Register(OverlayDescriptor{ID: OverlayPerf, Name: "Perf", Key: rl.KeyF, KeyLabel: "F"})
	r.SetEnabled(OverlayGrid, true)
	return r
}

// Register adds an overlay, disabled.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	if _, ok := r.enabled[id]; ok {
		r.enabled[id] = enabled
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleInput toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleInput() {
	for _, d := range r.descriptors {
		if d.Key != 0 && rl.IsKeyPressed(d.Key) {
			r.Toggle(d.ID)
		}
	}
}
