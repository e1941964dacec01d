// Package parallel provides the persistent worker pool that row-sliced
// image transforms dispatch onto.
package parallel

import (
	"runtime"
	"sync"
)

// Pool is a fixed-size fork-join pool. ForRows partitions a row range
// into one contiguous strip per worker and blocks until every strip is
// done; there is no work stealing, no partial completion and no
// cancellation. Workers live for the life of the process.
type Pool struct {
	dispatchMu sync.Mutex // one fork-join at a time

	mu      sync.Mutex
	work    *sync.Cond // workers wait here for a new generation
	done    *sync.Cond // the dispatcher waits here for pending to hit 0
	workers int
	gen     uint64
	pending int
	height  int
	fn      func(y0, y1 int)
}

// NewPool creates a pool with the given worker count, minimum 1.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{workers: workers}
	p.work = sync.NewCond(&p.mu)
	p.done = sync.NewCond(&p.mu)
	if workers > 1 {
		for i := 0; i < workers; i++ {
			go p.worker(i)
		}
	}
	return p
}

var (
	defaultPool *Pool
	defaultOnce sync.Once
)

// Default returns the process-wide pool, sized to the hardware
// concurrency, creating it on first use.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = NewPool(runtime.NumCPU())
	})
	return defaultPool
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// ForRows runs fn over [0, height), split into near-equal strips
// [i*h/n, (i+1)*h/n). With one worker, or fewer rows than workers, fn is
// called directly on the caller's goroutine. Every strip is complete when
// ForRows returns.
func (p *Pool) ForRows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	if p.workers == 1 || height < p.workers {
		fn(0, height)
		return
	}

	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	p.mu.Lock()
	p.height = height
	p.fn = fn
	p.pending = p.workers
	p.gen++
	p.work.Broadcast()
	for p.pending > 0 {
		p.done.Wait()
	}
	p.mu.Unlock()
}

// worker runs strip id of every dispatch. Waiting on a generation
// counter rather than a flag means a worker that arrives late still sees
// that a new dispatch happened.
func (p *Pool) worker(id int) {
	var lastGen uint64
	p.mu.Lock()
	for {
		for p.gen == lastGen {
			p.work.Wait()
		}
		lastGen = p.gen
		height, fn := p.height, p.fn
		p.mu.Unlock()

		y0 := id * height / p.workers
		y1 := (id + 1) * height / p.workers
		fn(y0, y1)

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.done.Signal()
		}
	}
}
