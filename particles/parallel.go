package particles

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/swirl/geom"
)

// defaultParallelThreshold is the minimum particle count to use the worker
// pool. Below this, a single pass is faster than dispatching.
const defaultParallelThreshold = 256

// workChunk is a range of particles for a worker to integrate.
type workChunk struct {
	index      int
	start, end int
	dt         float64
}

// chunkResult is a worker's partial reduction over its range.
type chunkResult struct {
	box    geom.Box
	clamps uint64
}

// workerPool integrates particle ranges on persistent goroutines.
type workerPool struct {
	numWorkers int
	results    []chunkResult

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{
		numWorkers: workers,
		results:    make([]chunkResult, workers),
	}
}

func (p *workerPool) start(s *System) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker(s *System) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.results[chunk.index] = s.integrateChunk(chunk.start, chunk.end, chunk.dt)
			p.doneChan <- struct{}{}
		}
	}
}

// integrate advances every alive particle by dt and returns the merged
// bounds of the survivors and the number of clamped velocity components.
// Results do not depend on how the range is split.
func (s *System) integrate(dt float64) (geom.Box, uint64) {
	n := s.pool.Len()
	if n == 0 {
		return geom.Box{}, 0
	}

	threshold := s.cfg.ParallelThreshold
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	if n < threshold || s.workers.numWorkers == 1 {
		r := s.integrateChunk(0, n, dt)
		return r.box, r.clamps
	}

	p := s.workers
	if !p.running {
		p.start(s)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{index: dispatched, start: start, end: end, dt: dt}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}

	var box geom.Box
	var clamps uint64
	for i := 0; i < dispatched; i++ {
		box = box.Merge(p.results[i].box)
		clamps += p.results[i].clamps
	}
	return box, clamps
}
