package main

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/pthm-cable/swirl/app"
	"github.com/pthm-cable/swirl/scene"
	"github.com/pthm-cable/swirl/stream"
)

// source supplies the particles to draw.
type source interface {
	advance(wall float64)
	visit(fn func(point))
	status() string
	close() error
}

// localSource runs a scene in process.
type localSource struct {
	app *app.App
}

func (s *localSource) advance(wall float64) { s.app.Advance(wall) }

func (s *localSource) visit(fn func(point)) {
	s.app.Scene().VisitSystems(func(v scene.SystemView) {
		f := v.System.CurrentFrame()
		defer f.Release()
		for i := range f.Particles {
			p := &f.Particles[i]
			fn(point{pos: p.Position, size: p.CurrentSize(), r: p.Color.R, g: p.Color.G, b: p.Color.B, a: p.Color.A})
		}
	})
}

func (s *localSource) status() string {
	state := "running"
	if s.app.Paused() {
		state = "paused"
	}
	return state
}

func (s *localSource) close() error { return s.app.Close() }

// remoteSource shows the latest frame of each system received from a
// stream server.
type remoteSource struct {
	client *stream.Client
	log    *slog.Logger

	mu     sync.Mutex
	latest map[string]stream.Message
	err    error
}

func dialRemote(ctx context.Context, url string, log *slog.Logger) (*remoteSource, error) {
	c, err := stream.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	s := &remoteSource{client: c, log: log, latest: make(map[string]stream.Message)}
	go s.read()
	return s, nil
}

func (s *remoteSource) read() {
	for {
		m, err := s.client.Next()
		s.mu.Lock()
		if err != nil {
			s.err = err
			s.mu.Unlock()
			s.log.Warn("stream closed", "error", err)
			return
		}
		s.latest[m.System] = m
		s.mu.Unlock()
	}
}

func (s *remoteSource) advance(float64) {}

func (s *remoteSource) visit(fn func(point)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range slices.Sorted(maps.Keys(s.latest)) {
		for _, p := range s.latest[name].Particles {
			fn(point{
				pos:  p.Position,
				size: p.Size,
				r:    float64(p.Color[0]) / 255,
				g:    float64(p.Color[1]) / 255,
				b:    float64(p.Color[2]) / 255,
				a:    float64(p.Color[3]) / 255,
			})
		}
	}
}

func (s *remoteSource) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "disconnected"
	}
	return "connected"
}

func (s *remoteSource) close() error { return s.client.Close() }
