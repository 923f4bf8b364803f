package worker

import (
	"runtime"
	"sync"
)

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	start    sync.Once
	stop     sync.Once
}

// NewPool creates a pool with the given number of workers. Non-positive
// values default to runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of goroutines the pool runs.
func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the workers. Calling it more than once is a no-op.
func (p *Pool) Start() {
	p.start.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	for job := range p.jobQueue {
		p.run(job)
	}
}

func (p *Pool) run(job func()) {
	defer p.wg.Done()
	job()
}

// Submit queues a job. It blocks while the queue is full.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.jobQueue <- job
}

// Wait blocks until every submitted job has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops the workers once the queue drains.
func (p *Pool) Close() {
	p.stop.Do(func() {
		close(p.jobQueue)
	})
}

// Map applies fn to every element of in on a fresh pool and returns the
// results in input order.
func Map[T, R any](workers int, in []T, fn func(int, T) R) []R {
	out := make([]R, len(in))
	if len(in) == 0 {
		return out
	}
	if workers > len(in) {
		workers = len(in)
	}

	p := NewPool(workers)
	p.Start()
	defer p.Close()

	for i, v := range in {
		i, v := i, v
		p.Submit(func() {
			out[i] = fn(i, v)
		})
	}
	p.Wait()
	return out
}
