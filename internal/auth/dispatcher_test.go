// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/pkg/errutil"
)

func TestHashWorkerPool_Do(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := auth.NewHashWorkerPool(2, 8)
	defer pool.Close()

	t.Run("runs the task and returns its error", func(t *testing.T) {
		ran := false
		err := pool.Do(context.Background(), func() error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)

		wantErr := errors.New("boom")
		err = pool.Do(context.Background(), func() error { return wantErr })
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("recovers from a panicking task", func(t *testing.T) {
		err := pool.Do(context.Background(), func() error {
			panic("corrupt input")
		})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_HASH_TASK_PANIC")

		// The worker survives and keeps serving.
		require.NoError(t, pool.Do(context.Background(), func() error { return nil }))
	})

	t.Run("concurrent submissions all complete", func(t *testing.T) {
		var mu sync.Mutex
		count := 0

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = pool.Do(context.Background(), func() error {
					mu.Lock()
					count++
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 20, count)
	})
}

func TestHashWorkerPool_ContextCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := auth.NewHashWorkerPool(1, 1)
	defer pool.Close()

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker.
	go func() {
		_ = pool.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// A caller that gives up while waiting gets a dispatch error, but
	// the in-flight work is not interrupted.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Do(ctx, func() error { return nil })
	if err != nil {
		errutil.AssertErrorCode(t, err, "AUTH_DISPATCH_FAILED")
	}

	close(release)
	// Drain: the queued task may still run after release.
	require.NoError(t, pool.Do(context.Background(), func() error { return nil }))
}

func TestHashWorkerPool_Close(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := auth.NewHashWorkerPool(2, 4)
	require.NoError(t, pool.Do(context.Background(), func() error { return nil }))

	pool.Close()
	pool.Close() // idempotent

	err := pool.Do(context.Background(), func() error { return nil })
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_POOL_CLOSED")
}

func TestHashWorkerPool_Metrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	pool := auth.NewHashWorkerPoolWithRegistry(2, 4, reg)
	defer pool.Close()

	require.NoError(t, pool.Do(context.Background(), func() error { return nil }))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "inkpress_hash_pool_tasks_total")
	assert.Contains(t, names, "inkpress_hash_pool_queue_depth")
}
