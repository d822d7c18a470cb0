// Package coalescer defers per-participant save and send actions so that bursts of
// appearance updates collapse into one action of each kind.
//
// Each kind has its own queue holding at most one due time per participant. Scheduling
// again overwrites the due time. A single driver goroutine sweeps both queues on a ticker
// while either holds entries and stops once both are empty; the next Schedule restarts it.
// Due actions are handed to a Dispatcher without waiting, so slow actions never delay the
// sweep. An action the dispatcher has no room for stays queued and is retried on the next
// sweep.
package coalescer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/stacklok/appearance-server/internal/telemetry"
	"github.com/stacklok/appearance-server/internal/workerpool"
)

// DefaultSweepInterval is the default period between queue sweeps
const DefaultSweepInterval = 500 * time.Millisecond

// Kind selects the queue an action is scheduled on
type Kind int

const (
	// KindSave persists the participant's appearance
	KindSave Kind = iota
	// KindSend broadcasts the participant's appearance
	KindSend

	numKinds = 2
)

// String returns the queue name
func (k Kind) String() string {
	switch k {
	case KindSave:
		return "save"
	case KindSend:
		return "send"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action performs the deferred work for a participant
type Action func(ctx context.Context, id uuid.UUID) error

// Dispatcher runs jobs in the background. TrySubmit must not block; it returns
// workerpool.ErrFull when the job cannot be queued right now.
type Dispatcher interface {
	TrySubmit(job workerpool.Job) error
}

// Coalescer owns the save and send queues and their sweep driver.
type Coalescer struct {
	clock      clock.WithTicker
	interval   time.Duration
	dispatcher Dispatcher
	actions    [numKinds]Action
	queues     [numKinds]*pendingQueue
	metrics    *telemetry.CoalescerMetrics

	// driverMu guards the driver state. It may be held while taking a queue lock,
	// never the other way round.
	driverMu   sync.Mutex
	running    bool
	stopped    bool
	stopCh     chan struct{}
	driverDone chan struct{}
}

// Option configures a Coalescer
type Option func(*Coalescer)

// WithClock sets the time source
func WithClock(c clock.WithTicker) Option {
	return func(co *Coalescer) {
		co.clock = c
	}
}

// WithSweepInterval sets the period between sweeps
func WithSweepInterval(d time.Duration) Option {
	return func(co *Coalescer) {
		if d > 0 {
			co.interval = d
		}
	}
}

// WithMetrics sets the queue metrics
func WithMetrics(m *telemetry.CoalescerMetrics) Option {
	return func(co *Coalescer) {
		co.metrics = m
	}
}

// New creates a coalescer that runs save and send through dispatcher
func New(dispatcher Dispatcher, save, send Action, opts ...Option) *Coalescer {
	c := &Coalescer{
		clock:      clock.RealClock{},
		interval:   DefaultSweepInterval,
		dispatcher: dispatcher,
		stopCh:     make(chan struct{}),
	}
	c.actions[KindSave] = save
	c.actions[KindSend] = send
	for i := range c.queues {
		c.queues[i] = newPendingQueue()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule arms kind for id to fire after delay, replacing any pending schedule of the
// same kind for id.
func (c *Coalescer) Schedule(kind Kind, id uuid.UUID, delay time.Duration) {
	if kind < 0 || kind >= numKinds {
		return
	}
	c.queues[kind].set(id, c.clock.Now().Add(delay))
	c.ensureDriver()
}

// Pending returns when the action of kind for id is due
func (c *Coalescer) Pending(kind Kind, id uuid.UUID) (time.Time, bool) {
	if kind < 0 || kind >= numKinds {
		return time.Time{}, false
	}
	return c.queues[kind].dueAt(id)
}

// Len returns the number of participants waiting in the queue of kind
func (c *Coalescer) Len(kind Kind) int {
	if kind < 0 || kind >= numKinds {
		return 0
	}
	return c.queues[kind].len()
}

// Running reports whether the sweep driver is active
func (c *Coalescer) Running() bool {
	c.driverMu.Lock()
	defer c.driverMu.Unlock()
	return c.running
}

// Stop halts the sweep driver and waits for it to exit or ctx to end. Pending entries
// stay queued and can be collected with TakeAll. Schedule keeps recording entries after
// Stop but nothing sweeps them.
func (c *Coalescer) Stop(ctx context.Context) error {
	c.driverMu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
	done := c.driverDone
	c.driverMu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("appearance update driver did not stop: %w", ctx.Err())
	}
}

// TakeAll empties the queue of kind regardless of due times
func (c *Coalescer) TakeAll(kind Kind) []uuid.UUID {
	if kind < 0 || kind >= numKinds {
		return nil
	}
	ids := c.queues[kind].takeAll()
	c.metrics.RecordQueueDepth(context.Background(), kind.String(), 0)
	return ids
}

func (c *Coalescer) ensureDriver() {
	c.driverMu.Lock()
	defer c.driverMu.Unlock()
	if c.running || c.stopped {
		return
	}
	c.running = true
	c.driverDone = make(chan struct{})
	go c.drive(c.driverDone)
}

func (c *Coalescer) drive(done chan struct{}) {
	defer close(done)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()
	slog.Debug("Appearance update driver started", "interval", c.interval)

	for {
		select {
		case <-c.stopCh:
			c.driverMu.Lock()
			c.running = false
			c.driverMu.Unlock()
			return
		case <-ticker.C():
			c.sweep()
			if c.idle() {
				slog.Debug("Appearance update driver idle, stopping")
				return
			}
		}
	}
}

// idle clears the running flag when both queues are empty. The check happens under
// driverMu so a concurrent Schedule either sees the driver still running or starts a
// new one.
func (c *Coalescer) idle() bool {
	c.driverMu.Lock()
	defer c.driverMu.Unlock()
	for _, q := range c.queues {
		if q.len() > 0 {
			return false
		}
	}
	c.running = false
	return true
}

// sweep dispatches every due entry. Queues are visited one at a time.
func (c *Coalescer) sweep() {
	ctx := context.Background()
	now := c.clock.Now()
	for i, q := range c.queues {
		kind := Kind(i)
		due := q.popDue(now)
		c.metrics.RecordQueueDepth(ctx, kind.String(), q.len())
		if len(due) == 0 {
			continue
		}
		dispatched := 0
		for _, id := range due {
			if c.dispatch(kind, id) {
				dispatched++
				continue
			}
			// Retried on the next sweep unless a newer schedule replaced it
			q.restore(id, now)
		}
		c.metrics.RecordDispatched(ctx, kind.String(), dispatched)
	}
}

// dispatch hands the action to the dispatcher. It reports false when the dispatcher was
// full and the entry should stay queued.
func (c *Coalescer) dispatch(kind Kind, id uuid.UUID) bool {
	action := c.actions[kind]
	if action == nil {
		return true
	}
	job := workerpool.Job{
		Name: fmt.Sprintf("appearance-%s/%s", kind, id),
		Run: func(ctx context.Context) error {
			start := c.clock.Now()
			err := action(ctx, id)
			c.metrics.RecordActionDuration(ctx, kind.String(), c.clock.Since(start), err == nil)
			return err
		},
	}
	err := c.dispatcher.TrySubmit(job)
	switch {
	case err == nil:
		return true
	case errors.Is(err, workerpool.ErrFull):
		slog.Debug("Workers busy, deferring action to the next sweep", "kind", kind.String(), "participant", id)
		return false
	case errors.Is(err, workerpool.ErrClosed):
		slog.Warn("Dropping deferred action, worker pool closed", "kind", kind.String(), "participant", id)
	default:
		slog.Error("Failed to dispatch deferred action", "kind", kind.String(), "participant", id, "error", err)
	}
	return true
}
