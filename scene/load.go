package scene

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/swirl/config"
	"github.com/pthm-cable/swirl/particles"
)

// Build populates the scene from a validated configuration. Nodes are
// created parents first regardless of their order in the file.
func (s *Scene) Build(cfg *config.Config) error {
	for _, tc := range cfg.Textures {
		s.textures.Declare(particles.TextureID(tc.ID), tc.Path)
	}

	created := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if name == "" || created[name] {
			return nil
		}
		ref, ok := cfg.Derived.Nodes[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownNode, name)
		}
		if err := visit(cfg.ParentOf(name)); err != nil {
			return err
		}
		created[name] = true

		switch ref.Kind {
		case config.NodeGroup:
			g := cfg.Groups[ref.Index]
			return s.AddGroup(g.Name, g.Parent, g.Transform.Matrix())
		case config.NodeEmitter:
			return s.addEmitterConfig(cfg.Emitters[ref.Index])
		default:
			return s.addSystemConfig(cfg.Systems[ref.Index])
		}
	}

	// Unnamed emitters are roots or hang below named nodes.
	for _, ec := range cfg.Emitters {
		if ec.Name != "" {
			continue
		}
		if err := visit(ec.Parent); err != nil {
			return err
		}
		if err := s.addEmitterConfig(ec); err != nil {
			return err
		}
	}
	for _, ec := range cfg.Emitters {
		if err := visit(ec.Name); err != nil {
			return err
		}
	}
	for _, g := range cfg.Groups {
		if err := visit(g.Name); err != nil {
			return err
		}
	}
	for _, sc := range cfg.Systems {
		if err := visit(sc.Name); err != nil {
			return err
		}
	}

	s.updateTransforms()
	// Emitters may hang below the systems using them, so autostart waits
	// until every node exists.
	var errs []error
	for _, sc := range cfg.Systems {
		if !sc.Autostart {
			continue
		}
		sys, _ := s.System(sc.Name)
		s.placeEmitter(sys)
		if err := sys.Start(); err != nil {
			errs = append(errs, fmt.Errorf("system %q: %w", sc.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.log.Info("scene built",
		"nodes", s.Len(),
		"systems", len(cfg.Systems),
		"emitters", len(cfg.Emitters),
	)
	return nil
}

func (s *Scene) addEmitterConfig(ec config.EmitterConfig) error {
	shape, err := ec.Build()
	if err != nil {
		return err
	}
	return s.AddEmitter(ec.Name, ec.Parent, ec.Transform.Matrix(), shape)
}

func (s *Scene) addSystemConfig(sc config.SystemConfig) error {
	pc, err := sc.ToParticles()
	if err != nil {
		return err
	}
	if _, err := s.AddSystem(sc.Name, sc.Parent, sc.Transform.Matrix(), pc, false); err != nil {
		return err
	}
	e := s.byName[sc.Name]
	s.psMap.Get(e).Autostart = sc.Autostart

	for _, v := range sc.Vorticity.Static {
		if _, err := s.AddStaticVortex(sc.Name, v.Position.R3(), v.Axis.R3()); err != nil {
			return err
		}
	}
	return nil
}
