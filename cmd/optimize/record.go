package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// recorder logs every evaluation to CSV and stdout and keeps the best
// point seen.
type recorder struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	maxEvals  int

	f *os.File
	w *csv.Writer

	evals       int
	best        []float64
	bestFitness float64
	start       time.Time
}

func newRecorder(path string, params *ParamVector, evaluator *FitnessEvaluator, maxEvals int) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := &recorder{
		params:      params,
		evaluator:   evaluator,
		maxEvals:    maxEvals,
		f:           f,
		w:           csv.NewWriter(f),
		bestFitness: 1e9,
		start:       time.Now(),
	}
	header := []string{"eval", "fitness", "fill_err", "drop_rate", "fill_cv", "radius"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	r.w.Write(header)
	return r, nil
}

// wrap returns fn with recording around each call. optimize runs it
// sequentially, so the recorder needs no lock.
func (r *recorder) wrap(fn func([]float64) float64) func([]float64) float64 {
	return func(x []float64) float64 {
		fitness := fn(x)
		r.observe(r.params.Clamp(r.params.Denormalize(x)), fitness)
		return fitness
	}
}

func (r *recorder) observe(values []float64, fitness float64) {
	r.evals++
	if fitness < r.bestFitness {
		r.bestFitness = fitness
		r.best = values
	}

	sum := r.evaluator.LastSummary()
	row := []string{
		strconv.Itoa(r.evals),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(sum.fillErr, 'f', 6, 64),
		strconv.FormatFloat(sum.dropRate, 'f', 6, 64),
		strconv.FormatFloat(sum.fillCV, 'f', 6, 64),
		strconv.FormatFloat(sum.radius, 'f', 3, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	r.w.Write(row)
	r.w.Flush()

	elapsed := time.Since(r.start)
	remaining := time.Duration(r.maxEvals-r.evals) * (elapsed / time.Duration(r.evals))
	fmt.Printf("Eval %d/%d: fitness=%.4f fill_err=%.3f drops=%.1f%% (best=%.4f) | elapsed: %s, ETA: %s\n",
		r.evals, r.maxEvals, fitness, sum.fillErr, sum.dropRate*100, r.bestFitness,
		formatDuration(elapsed), formatDuration(remaining))
}

func (r *recorder) close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// formatDuration formats a duration as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
