// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"context"
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
)

// Default sizing for the hash worker pool.
const (
	// DefaultHashWorkers caps concurrent argon2id computations. Each
	// verification pins a CPU for ~10ms and 64MB of memory, so the
	// pool must stay small and bounded.
	DefaultHashWorkers = 4

	// DefaultHashQueueSize bounds the number of pending verifications
	// before Do starts failing with a dispatch error.
	DefaultHashQueueSize = 64
)

type hashTask struct {
	fn   func() error
	done chan error
}

// HashWorkerPool executes CPU-bound hashing work on a dedicated,
// bounded set of goroutines so request-serving goroutines are never
// occupied by argon2id computation. It is safe for concurrent use.
//
// Call Close to stop the workers and release resources.
type HashWorkerPool struct {
	mu     sync.RWMutex
	tasks  chan hashTask
	closed bool
	wg     sync.WaitGroup

	queueDepth prometheus.Gauge
	tasksTotal prometheus.Counter
}

// NewHashWorkerPool creates a pool with the given number of workers
// and queue capacity. Non-positive values fall back to the defaults.
func NewHashWorkerPool(workers, queueSize int) *HashWorkerPool {
	return newHashWorkerPool(workers, queueSize, nil)
}

// NewHashWorkerPoolWithRegistry creates a pool and registers its
// queue-depth gauge and task counter with the provided registry.
func NewHashWorkerPoolWithRegistry(workers, queueSize int, reg prometheus.Registerer) *HashWorkerPool {
	return newHashWorkerPool(workers, queueSize, reg)
}

func newHashWorkerPool(workers, queueSize int, reg prometheus.Registerer) *HashWorkerPool {
	if workers <= 0 {
		workers = DefaultHashWorkers
	}
	if workers > runtime.NumCPU()*2 {
		workers = runtime.NumCPU() * 2
	}
	if queueSize <= 0 {
		queueSize = DefaultHashQueueSize
	}

	p := &HashWorkerPool{
		tasks: make(chan hashTask, queueSize),
	}

	if reg != nil {
		p.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inkpress_hash_pool_queue_depth",
			Help: "Number of hash verifications waiting for a worker",
		})
		p.tasksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkpress_hash_pool_tasks_total",
			Help: "Total number of hash tasks executed",
		})
		reg.MustRegister(p.queueDepth, p.tasksTotal)
	}

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

func (p *HashWorkerPool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		if p.queueDepth != nil {
			p.queueDepth.Dec()
		}
		t.done <- p.run(t.fn)
		if p.tasksTotal != nil {
			p.tasksTotal.Inc()
		}
	}
}

// run executes fn, converting a panic into an error so a corrupt
// input can never take down a worker.
func (p *HashWorkerPool) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("AUTH_HASH_TASK_PANIC").
				With("panic", r).
				Errorf("hash task panicked")
		}
	}()
	return fn()
}

// Do submits fn to the pool and waits for it to finish. The returned
// error is fn's own error, or a dispatch error when the pool is
// closed, the queue is full and ctx expires, or fn panics.
//
// Once dequeued, fn always runs to completion: if ctx is cancelled
// while waiting for the result, Do returns the context error but the
// work is not interrupted.
func (p *HashWorkerPool) Do(ctx context.Context, fn func() error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return oops.Code("AUTH_POOL_CLOSED").Errorf("hash worker pool is closed")
	}

	t := hashTask{fn: fn, done: make(chan error, 1)}

	select {
	case p.tasks <- t:
		if p.queueDepth != nil {
			p.queueDepth.Inc()
		}
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return oops.Code("AUTH_DISPATCH_FAILED").
			With("operation", "enqueue hash task").
			Wrap(ctx.Err())
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return oops.Code("AUTH_DISPATCH_FAILED").
			With("operation", "await hash task").
			Wrap(ctx.Err())
	}
}

// Close stops accepting work and waits for in-flight tasks to finish.
// It is safe to call more than once.
func (p *HashWorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
