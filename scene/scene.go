// Package scene holds particle systems, emitters and groups in an ECS
// world arranged as a transform hierarchy, and drives the systems each
// tick.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/components"
	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/particles"
	"github.com/pthm-cable/swirl/telemetry"
	"github.com/pthm-cable/swirl/vortex"
)

// Updater is anything advanced once per tick.
type Updater interface {
	Update(dt float64)
}

// SystemView is what renderers and streams see of a particle system.
type SystemView struct {
	Name   string
	World  mgl64.Mat4
	System *particles.System
}

// Renderable exposes the particle systems to draw, parents first.
type Renderable interface {
	VisitSystems(fn func(SystemView))
}

var (
	ErrDuplicateName = errors.New("duplicate node name")
	ErrUnknownNode   = errors.New("unknown node")
)

// Options configures a Scene.
type Options struct {
	Logger *slog.Logger
	Perf   *telemetry.PerfCollector
}

// Scene is a transform hierarchy of particle systems, emitters and groups.
// It is driven by a single goroutine.
type Scene struct {
	world *ecs.World

	nodeMap *ecs.Map2[components.Node, components.Transform]
	nodes   *ecs.Map1[components.Node]
	xforms  *ecs.Map1[components.Transform]
	psMap   *ecs.Map[components.ParticleSystem]
	emMap   *ecs.Map[components.Emitter]
	infoMap *ecs.Map[components.SystemInfo]

	psFilter *ecs.Filter3[components.Node, components.ParticleSystem, components.SystemInfo]

	byName map[string]ecs.Entity
	order  []ecs.Entity // parents before children

	emitters *emitter.Registry
	textures *TextureSet
	perf     *telemetry.PerfCollector
	log      *slog.Logger
}

// New creates an empty scene.
func New(opts Options) *Scene {
	world := ecs.NewWorld()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scene{
		world:    world,
		nodeMap:  ecs.NewMap2[components.Node, components.Transform](world),
		nodes:    ecs.NewMap1[components.Node](world),
		xforms:   ecs.NewMap1[components.Transform](world),
		psMap:    ecs.NewMap[components.ParticleSystem](world),
		emMap:    ecs.NewMap[components.Emitter](world),
		infoMap:  ecs.NewMap[components.SystemInfo](world),
		psFilter: ecs.NewFilter3[components.Node, components.ParticleSystem, components.SystemInfo](world),
		byName:   make(map[string]ecs.Entity),
		emitters: emitter.NewRegistry(),
		textures: NewTextureSet(),
		perf:     opts.Perf,
		log:      log,
	}
}

// Emitters returns the emitter registry the systems resolve against.
func (s *Scene) Emitters() *emitter.Registry { return s.emitters }

// Textures returns the declared texture set.
func (s *Scene) Textures() *TextureSet { return s.textures }

// Context returns the particle context for systems in this scene.
func (s *Scene) Context() particles.Context {
	ctx := particles.Context{Emitters: s.emitters, Textures: s.textures, Logger: s.log}
	if s.perf != nil {
		ctx.Perf = s.perf
	}
	return ctx
}

func (s *Scene) addNode(name, parent string, kind components.NodeKind, local mgl64.Mat4) (ecs.Entity, error) {
	if name != "" {
		if _, ok := s.byName[name]; ok {
			return ecs.Entity{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	node := components.Node{Name: name, Kind: kind}
	xf := components.Transform{Local: local, World: local}
	if parent != "" {
		pe, ok := s.byName[parent]
		if !ok {
			return ecs.Entity{}, fmt.Errorf("%w: parent %q", ErrUnknownNode, parent)
		}
		pn := s.nodes.Get(pe)
		if pn.Kind == components.KindEmitter {
			return ecs.Entity{}, fmt.Errorf("parent %q is an emitter", parent)
		}
		node.Parent, node.HasParent, node.Depth = pe, true, pn.Depth+1
		xf.World = s.xforms.Get(pe).World.Mul4(local)
	}

	e := s.nodeMap.NewEntity(&node, &xf)
	if name != "" {
		s.byName[name] = e
	}
	s.order = append(s.order, e)
	return e, nil
}

// AddGroup adds a transform-only node.
func (s *Scene) AddGroup(name, parent string, local mgl64.Mat4) error {
	_, err := s.addNode(name, parent, components.KindGroup, local)
	return err
}

// AddEmitter adds an emitter node and registers its shape.
func (s *Scene) AddEmitter(name, parent string, local mgl64.Mat4, shape *emitter.Shape) error {
	if _, ok := s.emitters.Lookup(shape.ID); ok {
		return fmt.Errorf("emitter %d already registered", shape.ID)
	}
	e, err := s.addNode(name, parent, components.KindEmitter, local)
	if err != nil {
		return err
	}
	s.emMap.Add(e, &components.Emitter{Shape: shape})
	s.emitters.Register(shape)
	return nil
}

// AddSystem creates a particle system node. The system is started when
// autostart is set.
func (s *Scene) AddSystem(name, parent string, local mgl64.Mat4, cfg particles.Config, autostart bool) (*particles.System, error) {
	if name == "" {
		return nil, errors.New("particle system needs a name")
	}
	e, err := s.addNode(name, parent, components.KindParticleSystem, local)
	if err != nil {
		return nil, err
	}
	cfg.World = s.xforms.Get(e).World
	sys := particles.NewSystem(s.Context(), cfg)
	s.psMap.Add(e, &components.ParticleSystem{System: sys, Autostart: autostart})
	s.infoMap.Add(e, &components.SystemInfo{State: sys.State().String(), Capacity: cfg.MaxParticleCount})

	if autostart {
		s.placeEmitter(sys)
		if err := sys.Start(); err != nil {
			s.log.Warn("particle system did not start", "system", name, "error", err)
		}
	}
	return sys, nil
}

// AddStaticVortex places a vortex at pos along axis, both local to the
// named system. It follows the system when transforms change.
func (s *Scene) AddStaticVortex(system string, pos, axis r3.Vec) (vortex.ID, error) {
	e, ok := s.byName[system]
	if !ok || !s.psMap.Has(e) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, system)
	}
	ps := s.psMap.Get(e)
	world := ps.System.WorldMatrix()
	id := ps.System.AddVortex(geom.TransformPoint(world, pos), geom.TransformDirection(world, axis))
	ps.Anchors = append(ps.Anchors, components.VortexAnchor{ID: id, Position: pos, Axis: axis})
	ps.Placed = world
	return id, nil
}

// placeVortices moves anchored vortices after the system's world matrix
// changed.
func placeVortices(ps *components.ParticleSystem, world mgl64.Mat4) {
	if len(ps.Anchors) == 0 || world == ps.Placed {
		return
	}
	for _, a := range ps.Anchors {
		ps.System.PlaceVortex(a.ID, geom.TransformPoint(world, a.Position), geom.TransformDirection(world, a.Axis))
	}
	ps.Placed = world
}

// System returns the named particle system.
func (s *Scene) System(name string) (*particles.System, bool) {
	e, ok := s.byName[name]
	if !ok || !s.psMap.Has(e) {
		return nil, false
	}
	return s.psMap.Get(e).System, true
}

// Info returns the latest summary of the named system.
func (s *Scene) Info(name string) (components.SystemInfo, bool) {
	e, ok := s.byName[name]
	if !ok || !s.infoMap.Has(e) {
		return components.SystemInfo{}, false
	}
	return *s.infoMap.Get(e), true
}

// SystemNames lists the particle systems in hierarchy order.
func (s *Scene) SystemNames() []string {
	var names []string
	for _, e := range s.order {
		if s.psMap.Has(e) {
			names = append(names, s.nodes.Get(e).Name)
		}
	}
	return names
}

// Len returns the number of nodes.
func (s *Scene) Len() int { return len(s.order) }

// SetLocal replaces a node's local matrix. World matrices follow on the
// next Update.
func (s *Scene) SetLocal(name string, local mgl64.Mat4) error {
	e, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	s.xforms.Get(e).Local = local
	return nil
}

// World returns a node's world matrix as of the last Update.
func (s *Scene) World(name string) (mgl64.Mat4, bool) {
	e, ok := s.byName[name]
	if !ok {
		return mgl64.Mat4{}, false
	}
	return s.xforms.Get(e).World, true
}

// Remove deletes a node and its descendants. Removed systems are stopped
// and closed; removed emitters are unregistered.
func (s *Scene) Remove(name string) error {
	root, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	doomed := map[ecs.Entity]bool{root: true}
	// order is topological, so one pass finds every descendant.
	for _, e := range s.order {
		n := s.nodes.Get(e)
		if n.HasParent && doomed[n.Parent] {
			doomed[e] = true
		}
	}

	for e := range doomed {
		n := s.nodes.Get(e)
		if s.psMap.Has(e) {
			sys := s.psMap.Get(e).System
			sys.Stop()
			sys.Close()
		}
		if s.emMap.Has(e) {
			s.emitters.Remove(s.emMap.Get(e).Shape.ID)
		}
		if n.Name != "" {
			delete(s.byName, n.Name)
		}
	}
	s.order = slices.DeleteFunc(s.order, func(e ecs.Entity) bool { return doomed[e] })
	for e := range doomed {
		s.world.RemoveEntity(e)
	}
	return nil
}

// updateTransforms recomputes world matrices parents first.
func (s *Scene) updateTransforms() {
	for _, e := range s.order {
		n := s.nodes.Get(e)
		xf := s.xforms.Get(e)
		if n.HasParent {
			xf.World = s.xforms.Get(n.Parent).World.Mul4(xf.Local)
		} else {
			xf.World = xf.Local
		}
	}
}

// emitterWorld finds the world matrix of the node carrying a shape.
func (s *Scene) emitterWorld(id emitter.ID) (mgl64.Mat4, bool) {
	for _, e := range s.order {
		if s.emMap.Has(e) && s.emMap.Get(e).Shape.ID == id {
			return s.xforms.Get(e).World, true
		}
	}
	return mgl64.Mat4{}, false
}

// placeEmitter expresses the system's emitter relative to the system.
func (s *Scene) placeEmitter(sys *particles.System) {
	id := sys.EmitterID()
	shape, ok := s.emitters.Lookup(id)
	if !ok {
		return
	}
	emWorld, ok := s.emitterWorld(id)
	if !ok {
		return
	}
	sysWorld := sys.WorldMatrix()
	if sysWorld.Det() == 0 {
		return
	}
	shape.SetMatrix(sysWorld.Inv().Mul4(emWorld))
}

// Update advances every particle system by dt.
func (s *Scene) Update(dt float64) {
	s.perf.StartPhase(telemetry.PhaseScene)
	s.updateTransforms()

	for _, e := range s.order {
		if !s.psMap.Has(e) {
			continue
		}
		ps := s.psMap.Get(e)
		sys := ps.System
		world := s.xforms.Get(e).World
		sys.SetWorldMatrix(world)
		placeVortices(ps, world)
		s.placeEmitter(sys)
		sys.CalcNextFrame(dt)
		s.perf.StartPhase(telemetry.PhaseScene)
	}
	s.refreshInfo()
}

// refreshInfo updates the SystemInfo components.
func (s *Scene) refreshInfo() {
	q := s.psFilter.Query()
	for q.Next() {
		_, ps, info := q.Get()
		sys := ps.System
		d := sys.Diagnostics()
		capacity := sys.MaxParticleCount()
		*info = components.SystemInfo{
			State:    sys.State().String(),
			Alive:    sys.ParticleCount(),
			Capacity: capacity,
			SimTime:  sys.SimulationTime(),
			Vortices: len(sys.Vortices()),
			Radius:   sys.BoundingSphere().Radius,
			Sequence: sys.FrameCounter(),
			Spawned:  d.Spawned,
			Dropped:  d.Dropped,
			Clamps:   d.NonFiniteClamps,
			Draining: sys.IsDraining(),
		}
		if capacity > 0 {
			info.Fill = float64(info.Alive) / float64(capacity)
		}
		if err := sys.LastError(); err != nil {
			info.LastError = err.Error()
		}
	}
}

// VisitSystems calls fn for every particle system, parents first.
func (s *Scene) VisitSystems(fn func(SystemView)) {
	for _, e := range s.order {
		if !s.psMap.Has(e) {
			continue
		}
		fn(SystemView{
			Name:   s.nodes.Get(e).Name,
			World:  s.xforms.Get(e).World,
			System: s.psMap.Get(e).System,
		})
	}
}

// StartAll starts every system; errors are joined.
func (s *Scene) StartAll() error {
	var errs []error
	s.VisitSystems(func(v SystemView) {
		s.placeEmitter(v.System)
		if err := v.System.Start(); err != nil {
			errs = append(errs, fmt.Errorf("system %q: %w", v.Name, err))
		}
	})
	return errors.Join(errs...)
}

// StopAll stops every system.
func (s *Scene) StopAll() {
	s.VisitSystems(func(v SystemView) { v.System.Stop() })
}

// Restart stops every system and starts again those marked autostart.
func (s *Scene) Restart() error {
	var errs []error
	for _, e := range s.order {
		if !s.psMap.Has(e) {
			continue
		}
		ps := s.psMap.Get(e)
		ps.System.Stop()
		if !ps.Autostart {
			continue
		}
		s.placeEmitter(ps.System)
		if err := ps.System.Start(); err != nil {
			errs = append(errs, fmt.Errorf("system %q: %w", s.nodes.Get(e).Name, err))
		}
	}
	return errors.Join(errs...)
}

// Finished reports whether no system is running.
func (s *Scene) Finished() bool {
	done := true
	s.VisitSystems(func(v SystemView) {
		if v.System.IsRunning() {
			done = false
		}
	})
	return done
}

// Close stops the worker pools of every system.
func (s *Scene) Close() {
	s.VisitSystems(func(v SystemView) { v.System.Close() })
}

var (
	_ Updater    = (*Scene)(nil)
	_ Renderable = (*Scene)(nil)
)
