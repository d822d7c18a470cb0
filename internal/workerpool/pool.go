// Package workerpool runs background jobs on a fixed set of workers whose lifetime is
// owned by the caller.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrClosed is returned when submitting to a pool that is draining or drained
	ErrClosed = errors.New("worker pool is closed")
	// ErrFull is returned by TrySubmit when every queue slot is taken
	ErrFull = errors.New("worker pool queue is full")
)

// Job is a unit of background work
type Job struct {
	// Name identifies the job in logs
	Name string
	Run  func(ctx context.Context) error
}

// Pool executes jobs on a bounded number of workers. A failing or panicking job is
// logged and never affects other jobs.
type Pool struct {
	ctx   context.Context
	jobs  chan Job
	group *errgroup.Group

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New starts workers goroutines consuming a queue of queueSize jobs. Jobs receive ctx,
// which is not cancelled by Drain.
func New(ctx context.Context, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		ctx:   ctx,
		jobs:  make(chan Job, queueSize),
		group: &errgroup.Group{},
	}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for job := range p.jobs {
				p.run(job)
			}
			return nil
		})
	}
	return p
}

// Submit queues a job, waiting for room in the queue until ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to submit %s: %w", job.Name, ctx.Err())
	}
}

// TrySubmit queues a job without waiting. It returns ErrFull when the queue has no room.
func (p *Pool) TrySubmit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrFull
	}
}

// Drain stops accepting jobs and waits for every queued job to finish or ctx to end.
// It is safe to call more than once.
func (p *Pool) Drain(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("worker pool drain interrupted: %w", ctx.Err())
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Background job panicked", "job", job.Name, "panic", r)
		}
	}()
	if err := job.Run(p.ctx); err != nil {
		slog.Error("Background job failed", "job", job.Name, "error", err)
	}
}
