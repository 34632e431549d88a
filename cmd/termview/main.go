// Command termview draws a particle scene as colored ASCII in the
// terminal. It either runs a scene itself or follows a frame stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/swirl/app"
	"github.com/pthm-cable/swirl/camera"
	"github.com/pthm-cable/swirl/config"
)

const orbitStep = 5.0 // degrees per key press

type viewer struct {
	screen tcell.Screen
	src    source
	cam    *camera.Camera
	ras    *raster
	fps    int
}

func main() {
	configPath := flag.String("config", "", "Path to a scene YAML file (empty = use defaults)")
	connect := flag.String("connect", "", "Follow a frame stream, e.g. ws://127.0.0.1:8787/ws")
	logPath := flag.String("log", "", "Write logs to this file (empty = discard)")
	fps := flag.Int("fps", 30, "Redraws per second")
	flag.Parse()

	logger, closeLog, err := openLog(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}

	src, err := openSource(cfg, *connect, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}
	defer src.close()

	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	rows = max(rows-1, 1)
	cc := cfg.Camera
	v := &viewer{
		screen: screen,
		src:    src,
		cam:    camera.New(float64(cols), float64(rows*2), cc.Target.R3(), cc.Distance, cc.Yaw, cc.Pitch, cc.FOV),
		ras:    newRaster(cols, rows),
		fps:    max(*fps, 1),
	}
	v.cam.OrbitSpeed = cc.OrbitSpeed
	v.run()
}

func openLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, nil)), func() { f.Close() }, nil
}

func openSource(cfg *config.Config, url string, log *slog.Logger) (source, error) {
	if url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return dialRemote(ctx, url, log)
	}
	a, err := app.New(cfg, app.Options{Name: "termview", Logger: log})
	if err != nil {
		return nil, err
	}
	return &localSource{app: a}, nil
}

func (v *viewer) run() {
	ticker := time.NewTicker(time.Second / time.Duration(v.fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return
			}
		case now := <-ticker.C:
			wall := now.Sub(last).Seconds()
			last = now
			v.src.advance(wall)
			v.cam.Update(wall)
			v.draw()
		}
	}
}

func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			v.cam.Orbit(-orbitStep, 0)
		case tcell.KeyRight:
			v.cam.Orbit(orbitStep, 0)
		case tcell.KeyUp:
			v.cam.Orbit(0, orbitStep)
		case tcell.KeyDown:
			v.cam.Orbit(0, -orbitStep)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case '+', '=':
				v.cam.ZoomBy(1.25)
			case '-':
				v.cam.ZoomBy(0.8)
			case 'r':
				v.cam.GlideHome(0.5)
			case ' ':
				if l, ok := v.src.(*localSource); ok {
					l.app.SetPaused(!l.app.Paused())
				}
			}
		}
	case *tcell.EventResize:
		cols, rows := v.screen.Size()
		rows = max(rows-1, 1)
		v.cam.Resize(float64(cols), float64(rows*2))
		v.ras.resize(cols, rows)
		v.screen.Sync()
	}
	return true
}

func (v *viewer) draw() {
	v.ras.clear()
	v.src.visit(func(p point) { v.ras.add(v.cam, p) })

	v.screen.Clear()
	v.ras.draw(v.screen)

	status := fmt.Sprintf(" %s | %d cells | arrows: orbit  +/-: zoom  r: reset  space: pause  q: quit",
		v.src.status(), v.ras.count())
	_, rows := v.screen.Size()
	style := tcell.StyleDefault.Reverse(true)
	for i, ch := range status {
		v.screen.SetContent(i, rows-1, ch, nil, style)
	}
	v.screen.Show()
}
