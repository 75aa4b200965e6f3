// Package future provides single-assignment futures whose reactions run on a
// scheduler rather than on the stack that settles them.
//
// Settling a Future never runs caller code synchronously: Resolve and Reject
// only record the outcome and queue the registered reactions on the
// Scheduler. Goroutines outside the scheduler can wait with Await or Done.
package future

import (
	"context"
	"errors"
	"sync"
)

// State is the settlement state of a Future.
type State uint8

const (
	StatePending State = iota
	StateFulfilled
	StateRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFulfilled:
		return "fulfilled"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Scheduler queues reactions. Implementations must not run fn before
// QueueMicrotask returns.
type Scheduler interface {
	QueueMicrotask(fn func())
}

// ErrAlreadySettled is returned when settling a Future twice.
var ErrAlreadySettled = errors.New("future: already settled")

// Future is a value of type T that becomes available later.
type Future[T any] struct {
	scheduler Scheduler

	mu        sync.Mutex
	state     State
	value     T
	err       error
	reactions []func()
	done      chan struct{}
}

// New returns a pending Future.
func New[T any](s Scheduler) *Future[T] {
	return &Future[T]{scheduler: s, done: make(chan struct{})}
}

// Resolved returns a Future already fulfilled with v.
func Resolved[T any](s Scheduler, v T) *Future[T] {
	f := New[T](s)
	_ = f.Resolve(v)
	return f
}

// Rejected returns a Future already rejected with err.
func Rejected[T any](s Scheduler, err error) *Future[T] {
	f := New[T](s)
	_ = f.Reject(err)
	return f
}

// Resolve fulfils the Future with v and queues its reactions.
func (f *Future[T]) Resolve(v T) error {
	return f.settle(StateFulfilled, v, nil)
}

// Reject rejects the Future with err and queues its reactions.
func (f *Future[T]) Reject(err error) error {
	var zero T
	return f.settle(StateRejected, zero, err)
}

func (f *Future[T]) settle(state State, v T, err error) error {
	f.mu.Lock()
	if f.state != StatePending {
		f.mu.Unlock()
		return ErrAlreadySettled
	}
	f.state = state
	f.value = v
	f.err = err
	reactions := f.reactions
	f.reactions = nil
	close(f.done)
	f.mu.Unlock()

	for _, r := range reactions {
		f.scheduler.QueueMicrotask(r)
	}
	return nil
}

// Then registers reactions. Either may be nil. They run on the scheduler,
// after the Future settles, even if it already has.
func (f *Future[T]) Then(onFulfilled func(T), onRejected func(error)) {
	reaction := func() {
		f.mu.Lock()
		state, v, err := f.state, f.value, f.err
		f.mu.Unlock()
		switch state {
		case StateFulfilled:
			if onFulfilled != nil {
				onFulfilled(v)
			}
		case StateRejected:
			if onRejected != nil {
				onRejected(err)
			}
		}
	}

	f.mu.Lock()
	if f.state == StatePending {
		f.reactions = append(f.reactions, reaction)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.scheduler.QueueMicrotask(reaction)
}

// State returns the current state.
func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done returns a channel closed when the Future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome. It is only meaningful once Done is closed.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Await blocks until the Future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
