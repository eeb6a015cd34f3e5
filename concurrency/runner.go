package concurrency

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultMaxConcurrent bounds in-flight tasks when callers do not specify a
// cap of their own.
const DefaultMaxConcurrent = 8

// Task is a unit of work executed by Run.
type Task[T any] func(ctx context.Context) (T, error)

// Run executes tasks with at most maxConcurrent running at any instant and
// returns their results.
//
// Results are collected in completion order, not submission order; callers
// that need submission order must index their results. The first task error
// cancels the shared context and is returned once all in-flight tasks have
// drained; tasks not yet started are skipped after cancellation. Cancelling
// the caller's context cancels the run the same way.
func Run[T any](ctx context.Context, tasks []Task[T], maxConcurrent int) ([]T, error) {
	if maxConcurrent < 1 {
		return nil, ErrInvalidConcurrency
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(maxConcurrent)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make([]T, 0, len(tasks))
		firstErr error
	)

	for _, task := range tasks {
		task := task
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if runCtx.Err() != nil {
				return
			}

			result, err := task(runCtx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results = append(results, result)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
				cancel()
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
