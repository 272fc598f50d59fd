package executor

import (
	"context"
	"sync"
)

// Future is the handle of a submitted one-shot task.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	val    T
	err    error
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		f.cancel()
	})
}

// Get waits for the task and returns its result. Waiting ends early when ctx
// is done; the task keeps running in that case.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the task has finished, failed or was cancelled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Cancel cancels the context passed to the task. A task that has not started
// yet is skipped and its Get returns context.Canceled.
func (f *Future[T]) Cancel() { f.cancel() }
