package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/swirl/app"
	"github.com/pthm-cable/swirl/config"
	"github.com/pthm-cable/swirl/telemetry"
)

// Fitness weights.
const (
	weightFill      = 1.0
	weightDrops     = 4.0
	weightStability = 0.5
	weightRadius    = 0.25

	warmupWindows = 2 // skip first N windows while the pool fills
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	loadConfig func() (*config.Config, error)
	duration   float64
	seeds      []int64

	targetFill float64
	maxRadius  float64 // 0 = unlimited

	mu          sync.Mutex
	lastSummary runSummary
}

// runSummary is what one run contributes to the fitness.
type runSummary struct {
	fillErr  float64 // mean squared distance of fill from the target
	dropRate float64 // refused spawns over attempted spawns
	fillCV   float64 // coefficient of variation of alive counts
	radius   float64 // largest bounding radius seen
	windows  int
}

// NewFitnessEvaluator creates a new evaluator. loadConfig must return a
// fresh copy of the base configuration on every call.
func NewFitnessEvaluator(params *ParamVector, loadConfig func() (*config.Config, error), duration float64, seeds []int64, targetFill, maxRadius float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		loadConfig: loadConfig,
		duration:   duration,
		seeds:      seeds,
		targetFill: targetFill,
		maxRadius:  maxRadius,
	}
}

// LastSummary returns the seed-averaged summary of the latest evaluation.
func (fe *FitnessEvaluator) LastSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runSummary, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runSummary
	total := 0.0
	for _, r := range results {
		total += fe.computeFitness(r)
		avg.fillErr += r.fillErr
		avg.dropRate += r.dropRate
		avg.fillCV += r.fillCV
		avg.radius = max(avg.radius, r.radius)
		avg.windows += r.windows
	}
	n := float64(len(results))
	avg.fillErr /= n
	avg.dropRate /= n
	avg.fillCV /= n

	fe.mu.Lock()
	fe.lastSummary = avg
	fe.mu.Unlock()

	return total / n
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runSummary {
	cfg, err := fe.loadConfig()
	if err != nil {
		return runSummary{fillErr: math.Inf(1)}
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return runSummary{fillErr: math.Inf(1)}
	}
	for i := range cfg.Systems {
		cfg.Systems[i].Seed = seed + int64(i)
		cfg.Systems[i].UseRandomSeed = false
	}
	cfg.Simulation.Duration = fe.duration

	var windows []telemetry.WindowStats
	a, err := app.New(cfg, app.Options{
		StatsWindowSec: 1,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return runSummary{fillErr: math.Inf(1)}
	}
	defer a.Close()
	a.RunHeadless(context.Background())

	return fe.summarize(windows)
}

// summarize reduces the window stats of one run.
func (fe *FitnessEvaluator) summarize(windows []telemetry.WindowStats) runSummary {
	if len(windows) <= warmupWindows {
		return runSummary{fillErr: 1}
	}
	valid := windows[warmupWindows:]

	var s runSummary
	var spawned, dropped uint64
	alive := make([]float64, 0, len(valid))
	for _, w := range valid {
		d := w.Fill - fe.targetFill
		s.fillErr += d * d
		spawned += w.Spawned
		dropped += w.Dropped
		alive = append(alive, float64(w.Alive))
		s.radius = max(s.radius, w.MaxBoundingRadius)
	}
	s.windows = len(valid)
	s.fillErr /= float64(len(valid))
	if attempts := spawned + dropped; attempts > 0 {
		s.dropRate = float64(dropped) / float64(attempts)
	}
	if len(alive) >= 2 {
		mean, std := stat.MeanStdDev(alive, nil)
		if mean > 0 {
			s.fillCV = std / mean
		}
	}
	return s
}

// computeFitness calculates the scalar fitness (lower = better).
func (fe *FitnessEvaluator) computeFitness(r runSummary) float64 {
	f := weightFill*r.fillErr + weightDrops*r.dropRate + weightStability*r.fillCV*r.fillCV
	if fe.maxRadius > 0 && r.radius > fe.maxRadius {
		over := (r.radius - fe.maxRadius) / fe.maxRadius
		f += weightRadius * over * over
	}
	return f
}
