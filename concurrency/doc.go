// Package concurrency provides a bounded-concurrency task runner.
//
// Run executes a collection of tasks over a fixed-size worker pool, capping
// how many execute simultaneously. The pool's submission gate is the
// backpressure mechanism reused by the batched-upsert orchestrator and the
// URL loaders: new work is admitted only when a concurrency slot frees up.
package concurrency
