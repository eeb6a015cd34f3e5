package concurrency

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CollectsAllResults(t *testing.T) {
	tasks := make([]Task[int], 20)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			return i, nil
		}
	}

	results, err := Run(context.Background(), tasks, 4)
	require.NoError(t, err)
	require.Len(t, results, 20)

	// Completion order is unspecified; sort before comparing.
	sort.Ints(results)
	for i, r := range results {
		assert.Equal(t, i, r)
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	for _, maxConcurrent := range []int{1, 2, 5} {
		var active, peak int64

		tasks := make([]Task[struct{}], 25)
		for i := range tasks {
			tasks[i] = func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt64(&active, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt64(&active, -1)
				return struct{}{}, nil
			}
		}

		_, err := Run(context.Background(), tasks, maxConcurrent)
		require.NoError(t, err)
		assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(maxConcurrent),
			"maxConcurrent=%d", maxConcurrent)
	}
}

func TestRun_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")

	tasks := []Task[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	_, err := Run(context.Background(), tasks, 1)
	assert.ErrorIs(t, err, boom)
}

func TestRun_ErrorCancelsRemainingTasks(t *testing.T) {
	var started int64
	boom := errors.New("boom")

	tasks := make([]Task[int], 50)
	tasks[0] = func(ctx context.Context) (int, error) {
		return 0, boom
	}
	for i := 1; i < len(tasks); i++ {
		tasks[i] = func(ctx context.Context) (int, error) {
			atomic.AddInt64(&started, 1)
			return 0, nil
		}
	}

	_, err := Run(context.Background(), tasks, 1)
	require.ErrorIs(t, err, boom)
	// With one worker and a failing first task, later tasks observe the
	// cancelled context before running.
	assert.Zero(t, atomic.LoadInt64(&started))
}

func TestRun_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tasks := make([]Task[int], 10)
	for i := range tasks {
		tasks[i] = func(taskCtx context.Context) (int, error) {
			cancel()
			select {
			case <-taskCtx.Done():
				return 0, taskCtx.Err()
			case <-time.After(5 * time.Second):
				return 0, errors.New("task was not cancelled")
			}
		}
	}

	_, err := Run(ctx, tasks, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidConcurrency(t *testing.T) {
	_, err := Run(context.Background(), []Task[int]{}, 0)
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestRun_NoTasks(t *testing.T) {
	results, err := Run[int](context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
