// Package workqueue runs named background tasks on a bounded pool. Callers
// never wait on a submitted task; failures are reported on an error channel
// that the queue drains into the log.
package workqueue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

const defaultBuffer = 256

// TaskFunc is the body of a background task.
type TaskFunc func(ctx context.Context) error

type task struct {
	name string
	run  TaskFunc
}

// TaskError is reported for every task that returned an error or panicked.
type TaskError struct {
	Name string
	Err  error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Name, e.Err)
}

type Queue struct {
	log zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	tasks chan task
	errs  chan TaskError
	pool  *pool.Pool

	mu     sync.RWMutex
	closed bool

	pending   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	dispatchDone chan struct{}
	reportDone   chan struct{}
}

// New starts a queue with at most workers concurrent tasks and room for
// buffer waiting tasks.
func New(log zerolog.Logger, workers, buffer int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = defaultBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		log:          log.With().Str("module", "workqueue").Logger(),
		ctx:          ctx,
		cancel:       cancel,
		tasks:        make(chan task, buffer),
		errs:         make(chan TaskError, buffer),
		pool:         pool.New().WithMaxGoroutines(workers),
		dispatchDone: make(chan struct{}),
		reportDone:   make(chan struct{}),
	}

	go q.dispatch()
	go q.report()

	return q
}

// Submit enqueues fn without blocking. It reports false when the queue is
// closed or full.
func (q *Queue) Submit(name string, fn TaskFunc) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.log.Debug().Str("task", name).Msg("queue closed, task dropped")
		return false
	}

	q.pending.Add(1)
	select {
	case q.tasks <- task{name: name, run: fn}:
		return true
	default:
		q.pending.Add(-1)
		q.log.Warn().Str("task", name).Msg("queue full, task dropped")
		return false
	}
}

// Pending returns the number of submitted tasks that have not finished.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// Stats returns the number of finished and failed tasks.
func (q *Queue) Stats() (completed, failed int) {
	return int(q.completed.Load()), int(q.failed.Load())
}

// Close stops intake and waits for every queued task to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.reportDone
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	<-q.dispatchDone
	<-q.reportDone
	q.cancel()
}

// Stop cancels running tasks and then closes the queue.
func (q *Queue) Stop() {
	q.cancel()
	q.Close()
}

func (q *Queue) dispatch() {
	defer close(q.dispatchDone)

	for t := range q.tasks {
		t := t
		q.pool.Go(func() {
			defer q.pending.Add(-1)
			if err := q.run(t); err != nil {
				q.failed.Add(1)
				q.errs <- TaskError{Name: t.name, Err: err}
			}
			q.completed.Add(1)
		})
	}

	q.pool.Wait()
	close(q.errs)
}

func (q *Queue) run(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := q.ctx.Err(); err != nil {
		return err
	}
	return t.run(q.ctx)
}

func (q *Queue) report() {
	defer close(q.reportDone)

	for e := range q.errs {
		q.log.Warn().Err(e.Err).Str("task", e.Name).Msg("background task failed")
	}
}
