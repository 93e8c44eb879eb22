package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work producing a result of type R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// Pool manages a pool of workers that execute jobs concurrently.
// Results are drained as they arrive, so Submit never waits on an unread result.
type Pool[R any] struct {
	workers     int
	jobQueue    chan Job[R]
	results     chan R
	collected   []R
	collectDone chan struct{}
	wg          sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	queueOnce   sync.Once
	resultsOnce sync.Once
}

// NewPool creates a pool of workers bound to ctx
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:     workers,
		jobQueue:    make(chan Job[R], workers*2),
		results:     make(chan R, workers*2),
		collectDone: make(chan struct{}),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool[R]) Start() {
	go p.collect()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) collect() {
	defer close(p.collectDone)
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- job.Execute(p.ctx)
		}
	}
}

// Submit queues a job; it reports false once the pool is cancelled
func (p *Pool[R]) Submit(job Job[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait waits for all submitted jobs and returns their results in completion order
func (p *Pool[R]) Wait() []R {
	p.queueOnce.Do(func() { close(p.jobQueue) })
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	p.cancelFunc()
	return p.collected
}

// Shutdown cancels outstanding jobs, stops the workers and returns the results
// of jobs that finished. Queued jobs that never ran have no result.
func (p *Pool[R]) Shutdown() []R {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	return p.collected
}

func (p *Pool[R]) closeResults() {
	p.resultsOnce.Do(func() {
		close(p.results)
	})
}
