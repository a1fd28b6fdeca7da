package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrPending is returned by Result while the task is still running.
var ErrPending = errors.New("roster: task still running")

type taskIDKey struct{}

// TaskID returns the id of the task whose context this is, or "".
func TaskID(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}

// Task is the handle of one background unit of work producing a T.
// It completes exactly once.
type Task[T any] struct {
	id   string
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine and returns its handle immediately.
// fn's context carries the task id, see TaskID.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
	ctx = context.WithValue(ctx, taskIDKey{}, t.id)

	go func() {
		defer close(t.done)
		t.val, t.err = fn(ctx)
	}()

	return t
}

// Completed returns a task that has already finished with v and err.
func Completed[T any](v T, err error) *Task[T] {
	t := &Task[T]{
		id:   uuid.NewString(),
		done: make(chan struct{}),
		val:  v,
		err:  err,
	}
	close(t.done)
	return t
}

// ID uniquely identifies the task in logs.
func (t *Task[T]) ID() string { return t.id }

// Done is closed once the task has finished.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx is done. A cancelled wait does
// not cancel the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking, or ErrPending.
func (t *Task[T]) Result() (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	default:
		var zero T
		return zero, ErrPending
	}
}
