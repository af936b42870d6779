// Package parallel provides the worker pool overlay construction fans
// record mapping out on.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs submitted closures on a fixed set of goroutines.
// Each worker owns a queue and steals from its siblings when idle, so
// a batch with a few slow items still keeps every worker busy.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// workers <= 0 uses GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	mine := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(mine)
			return

		case fn := <-mine:
			if fn != nil {
				fn()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(mine)
				return
			case fn := <-mine:
				if fn != nil {
					fn()
				}
			}
		}
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case fn := <-queue:
			if fn != nil {
				fn()
			}
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// ExecuteAll distributes the batch round-robin across the workers and
// blocks until every item has run. A no-op on a closed pool.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var pending sync.WaitGroup
	pending.Add(len(work))

	for i, fn := range work {
		fn := fn
		wrapped := func() {
			defer pending.Done()
			fn()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			pending.Done()
		}
	}

	pending.Wait()
}

// Close stops accepting work, runs what is already queued, and waits
// for the workers to exit. Safe to call more than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the pool size.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
