// Package eventloop runs a realm's tasks on a single goroutine.
//
// Tasks are posted from any goroutine and run one at a time. After each task
// the microtask queue is drained, so futures settled during a task deliver
// their reactions before the next task starts. Loop implements
// future.Scheduler.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = errors.New("eventloop: closed")

// DefaultQueueSize is the task queue capacity.
const DefaultQueueSize = 256

// Loop is a task queue with a microtask checkpoint after every task.
type Loop struct {
	tasks chan func()
	done  chan struct{}

	mu         sync.Mutex
	microtasks []func()

	closeOnce sync.Once
	logger    *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the task queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// New creates a Loop. Call Run to start processing tasks.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "eventloop")
	return l
}

// QueueMicrotask appends fn to the microtask queue.
func (l *Loop) QueueMicrotask(fn func()) {
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
}

// PerformMicrotaskCheckpoint runs microtasks until the queue is empty,
// including ones queued while draining.
func (l *Loop) PerformMicrotaskCheckpoint() {
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()

		l.safeRun(fn)
	}
}

// PendingMicrotasks returns the number of queued microtasks.
func (l *Loop) PendingMicrotasks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.microtasks)
}

// Post queues a task. It blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Task claim states used by Do.
const (
	taskQueued int32 = iota
	taskStarted
	taskAbandoned
)

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task.
//
// When Do returns an error fn has not run and never will. Once fn has
// started, Do waits for it even if ctx is done meanwhile.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	err := l.Post(func() {
		if !state.CompareAndSwap(taskQueued, taskStarted) {
			return
		}
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}

	abandon := func(reason error) error {
		if state.CompareAndSwap(taskQueued, taskAbandoned) {
			return reason
		}
		<-finished
		return nil
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return abandon(ctx.Err())
	case <-l.done:
		return abandon(ErrClosed)
	}
}

// Run processes tasks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.safeRun(fn)
			l.PerformMicrotaskCheckpoint()
		}
	}
}

// Close stops the loop. Queued tasks are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Done returns a channel closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
