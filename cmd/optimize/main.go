package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/swirl/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base scene YAML file (empty = use defaults)")
	system := flag.String("system", "", "System to tune (empty = first system)")
	duration := flag.Float64("duration", 20, "Simulated seconds per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	targetFill := flag.Float64("target-fill", 0.8, "Desired alive/capacity ratio")
	maxRadius := flag.Float64("max-radius", 0, "Penalize bounding radii above this (0 = off)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	loadConfig := func() (*config.Config, error) { return config.Load(*configPath) }
	baseCfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *system == "" {
		if len(baseCfg.Systems) == 0 {
			log.Fatal("config has no systems")
		}
		*system = baseCfg.Systems[0].Name
	}

	params, err := NewParamVector(baseCfg, *system)
	if err != nil {
		log.Fatal(err)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, loadConfig, *duration, evalSeeds, *targetFill, *maxRadius)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds already run in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	rec, err := newRecorder(filepath.Join(*outputDir, "optimize_log.csv"), params, evaluator, *maxEvals)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer rec.close()
	problem.Func = rec.wrap(problem.Func)

	fmt.Printf("Tuning %q with %d parameters, population=%d, max_evals=%d\n",
		*system, dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, seconds per run: %.0f\n", *seeds, *duration)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	bestParams := rec.best
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", rec.evals, formatDuration(time.Since(rec.start)))
	fmt.Printf("Best fitness: %.4f\n", rec.bestFitness)

	if bestParams == nil {
		return
	}
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	bestCfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		log.Fatal(err)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
