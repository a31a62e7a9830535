// Package worker provides the background pool that processes delivery
// jobs. Each enqueued job is handled by exactly one worker; jobs for
// different peers run independently, so one slow peer never blocks the
// rest.
package worker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/exp/slog"
)

// ErrQueueFull is returned when the job buffer is at capacity. Dispatch
// treats it as a dropped delivery and logs it; the change is not lost,
// the next mutation or a manual retry covers it.
var ErrQueueFull = errors.New("worker queue is full")

// ErrStopped is returned when enqueueing after Stop.
var ErrStopped = errors.New("worker pool is stopped")

// Job is one unit of background work.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool over a buffered job channel.
type Pool struct {
	jobs    chan Job
	workers int
	log     *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue size.
func NewPool(workers, queueSize int, log *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		log:     log.With(slog.String("component", "worker_pool")),
	}
}

// Start launches the workers. ctx cancellation stops job processing;
// jobs still run to completion once picked up.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
	p.log.Info("worker pool started", slog.Int("workers", p.workers))
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// Enqueue hands a job to the pool without blocking. The mutex is held
// across the send so Stop cannot close the queue between the stopped
// check and the send; the send itself never blocks, so Stop is never
// held up waiting for it.
func (p *Pool) Enqueue(job func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.safeRun(ctx, job)
		}
	}
}

// safeRun keeps a panicking job from taking the worker down.
func (p *Pool) safeRun(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("job panicked", "panic", r)
		}
	}()
	job(ctx)
}
