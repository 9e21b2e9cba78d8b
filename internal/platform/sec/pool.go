// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by [WorkerPool.Do] after [WorkerPool.Close].
var ErrPoolClosed = errors.New("sec: worker pool closed")

type poolJob struct {
	run  func()
	done chan struct{}
}

// WorkerPool runs CPU-bound work (password hashing) on a fixed set of goroutines
// so request handlers only wait on a channel instead of burning their own time slice.
type WorkerPool struct {
	jobs      chan poolJob
	closed    chan struct{}
	group     errgroup.Group
	closeOnce sync.Once
}

// NewWorkerPool starts workers goroutines. A non-positive count uses GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pool := &WorkerPool{
		jobs:   make(chan poolJob),
		closed: make(chan struct{}),
	}

	for range workers {
		pool.group.Go(func() error {
			for {
				select {
				case job := <-pool.jobs:
					job.run()
					close(job.done)
				case <-pool.closed:
					return nil
				}
			}
		})
	}

	return pool
}

// Do runs fn on a worker and waits for it.
//
// If ctx ends first, Do returns ctx.Err() immediately; a job already picked up
// still runs to completion on its worker but its result is discarded.
func (pool *WorkerPool) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job := poolJob{run: fn, done: make(chan struct{})}

	select {
	case pool.jobs <- job:
	case <-pool.closed:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers and waits for in-flight jobs to finish. It is idempotent.
func (pool *WorkerPool) Close() {
	pool.closeOnce.Do(func() {
		close(pool.closed)
	})
	_ = pool.group.Wait()
}

// submit runs fn on pool (or inline when pool is nil) and returns its results.
func submit[T any](ctx context.Context, pool *WorkerPool, fn func() (T, error)) (T, error) {
	if pool == nil {
		return fn()
	}

	var (
		result T
		err    error
	)
	if poolErr := pool.Do(ctx, func() { result, err = fn() }); poolErr != nil {
		var zero T
		return zero, poolErr
	}
	return result, err
}
