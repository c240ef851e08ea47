package scheduler

import (
	"context"
	"sync"
)

// Queue is a FIFO Scheduler backed by an unbounded in-memory list.
//
// Dispatched tasks only run when a caller drains the queue, either with
// Run (a serial worker loop), RunOne, or RunPending. Without a worker a
// Queue behaves like a manual test clock: nothing happens until asked.
//
// Queue is safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	ready chan struct{}
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Ensure Queue implements Scheduler.
var _ Scheduler = (*Queue)(nil)

func (q *Queue) Dispatch(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}

// RunOne removes and runs the next task, blocking until one is available
// or the context is cancelled.
func (q *Queue) RunOne(ctx context.Context) error {
	for {
		if task, ok := q.pop(); ok {
			task()
			return nil
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunPending runs queued tasks until the queue is empty, including tasks
// enqueued by the tasks it runs. It returns the number of tasks run.
func (q *Queue) RunPending() int {
	n := 0
	for {
		task, ok := q.pop()
		if !ok {
			return n
		}
		task()
		n++
	}
}

// Run processes tasks serially until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	for {
		if err := q.RunOne(ctx); err != nil {
			return err
		}
	}
}
