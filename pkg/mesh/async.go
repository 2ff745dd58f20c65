package mesh

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Executor runs independent units of work, possibly concurrently.
type Executor interface {
	Submit(id int, fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(id int, fn func())

// Submit calls f.
func (f ExecutorFunc) Submit(id int, fn func()) { f(id, fn) }

// WorkerExecutor runs tasks on a dynamic worker pool. Idle workers exit
// after a second.
type WorkerExecutor struct {
	pool worker.DynamicWorkerPool
}

// NewWorkerExecutor creates a pool of up to workers goroutines.
func NewWorkerExecutor(workers int) *WorkerExecutor {
	return &WorkerExecutor{
		pool: worker.NewDynamicWorkerPool(max(workers, 1), 256, 1*time.Second),
	}
}

// Submit queues fn on the pool.
func (e *WorkerExecutor) Submit(id int, fn func()) {
	e.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			fn()
			return nil, nil
		},
	})
}

// Async tracks a batch of per-geometry operations submitted by whole-mesh
// calls. Tasks check the context before they start; a started task always
// runs to completion, and every geometry operation commits its result in a
// single step, so cancellation never leaves partial writes.
type Async struct {
	ctx  context.Context
	exec Executor
	wg   sync.WaitGroup

	total   atomic.Int64
	done    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// NewAsync creates a handle submitting work to exec.
func NewAsync(ctx context.Context, exec Executor) *Async {
	return &Async{ctx: ctx, exec: exec}
}

func (a *Async) run(id int, fn func() bool) {
	a.total.Add(1)
	a.wg.Add(1)
	a.exec.Submit(id, func() {
		defer a.wg.Done()
		if a.ctx.Err() != nil {
			a.skipped.Add(1)
			return
		}
		if !fn() {
			a.failed.Add(1)
		}
		a.done.Add(1)
	})
}

// Wait blocks until every submitted task finished or was skipped. It returns
// the context error when tasks were skipped, or ErrTaskFailed when a task
// reported failure.
func (a *Async) Wait() error {
	a.wg.Wait()
	if n := a.skipped.Load(); n > 0 {
		return fmt.Errorf("%d of %d tasks skipped: %w", n, a.total.Load(), a.ctx.Err())
	}
	if n := a.failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d of %d tasks", ErrTaskFailed, n, a.total.Load())
	}
	return nil
}

// Failed returns the number of tasks that reported failure.
func (a *Async) Failed() int { return int(a.failed.Load()) }

// Progress returns the number of finished and submitted tasks.
func (a *Async) Progress() (done, total int) {
	return int(a.done.Load()), int(a.total.Load())
}
