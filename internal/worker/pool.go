package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Job is one unit of work run by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a job produces
type Result interface {
	GetError() error
}

// PanicError is reported for a job that panicked. The pool keeps running.
type PanicError struct {
	Job   Job
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// panicResult carries a PanicError in place of the job's own result
type panicResult struct {
	err *PanicError
}

func (r *panicResult) GetError() error {
	return r.err
}

// Pool runs jobs on a fixed number of goroutines. Results are drained as
// they complete, so any number of jobs may be submitted before Wait.
// Cancelling the parent context stops the workers; queued jobs that never
// ran produce no result.
type Pool struct {
	workers   int
	jobs      chan Job
	results   chan Result
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	collected []Result
	drained   chan struct{}
}

// NewPool creates a pool with the given number of workers (at least one)
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers and the result collector. Call it once.
func (p *Pool) Start() {
	p.drained = make(chan struct{})
	go p.collect()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.results <- p.run(job):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) collect() {
	defer close(p.drained)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

func (p *Pool) run(job Job) (result Result) {
	defer func() {
		if v := recover(); v != nil {
			result = &panicResult{err: &PanicError{Job: job, Value: v, Stack: debug.Stack()}}
		}
	}()
	return job.Execute(p.ctx)
}

// Submit queues a job. It reports false when the pool was stopped before
// the job could be queued.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Wait stops accepting jobs, waits for the workers and returns the results
// in completion order. It must be called once, after the last Submit.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()
	p.closeResults()
	p.waitDrained()
	p.cancel()
	return p.collected
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	p.waitDrained()
}

func (p *Pool) waitDrained() {
	if p.drained != nil {
		<-p.drained
	}
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
