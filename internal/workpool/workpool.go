// Package workpool runs blocking fetches on a fixed number of slots shared by
// every query in the process.
package workpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of concurrent tasks when none is configured.
const DefaultSize = 2

// Pool bounds the number of tasks running at once. Its size is fixed at
// construction.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
}

// Result is the outcome of one submitted task.
type Result[T any] struct {
	Value T
	Err   error
}

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("task panicked: %v", e.Value) }

func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

func (p *Pool) Size() int { return int(p.size) }

// Submit schedules fn and returns immediately. The returned channel receives
// exactly one Result and is buffered, so a caller that stops waiting does not
// leak the task goroutine. If ctx ends before a slot frees up, fn never runs and the result carries
// ctx.Err().
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			out <- Result[T]{Err: err}
			return
		}
		defer p.sem.Release(1)
		out <- run(ctx, fn)
	}()
	return out
}

func run[T any](ctx context.Context, fn func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: &PanicError{Value: r}}
		}
	}()
	v, err := fn(ctx)
	return Result[T]{Value: v, Err: err}
}

// Await blocks until the task reports or ctx ends.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
