// Package workerpool provides the single shared worker group
// requires: a semaphore-bounded pool of size N serving both the analyzer
// (C4) and the exporter (C6), grounded on the retrieval pack's bounded
// compression-gopher pattern (jpeg.Pool) generalized from a fixed
// goroutine-per-worker loop to on-demand submission gated by a weighted
// semaphore, matching how a detection pipeline manager owns a
// fixed worker count processing a task channel.
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many submitted tasks run concurrently.
type Pool struct {
	sem *semaphore.Weighted
}

// New builds a pool admitting at most n concurrent tasks.
func New(n int) *Pool {
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

// Future is a handle to one submitted task's eventual result.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Wait blocks until the task completes and returns its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.result, f.err
}

// Submit runs fn in a new goroutine once a slot is free, returning
// immediately with a Future. If ctx is cancelled before a slot frees, fn is
// never called and the future resolves with ctx.Err().
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	fut := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(fut.done)
		if err := p.sem.Acquire(ctx, 1); err != nil {
			fut.err = err
			return
		}
		defer p.sem.Release(1)
		fut.result, fut.err = fn(ctx)
	}()
	return fut
}
