package scheduler

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// WorkStealing wraps another Scheduler and lets callers "steal" work that
// was dispatched but has not run yet, running it synchronously with
// AdvanceUntilIdle.
//
// Every dispatched task is recorded in an internal FIFO and also handed to
// the delegate. Whichever side removes the task from the FIFO first runs it;
// the other side finds it gone and does nothing. A task therefore runs
// exactly once, either on the delegate (with whatever parallelism the
// delegate provides) or on the goroutine calling AdvanceUntilIdle.
//
// If the delegate runs tasks in place (Immediate), Dispatch runs the task
// before returning and there is never anything to steal.
//
// A stolen task runs on the goroutine calling AdvanceUntilIdle until it
// returns. The runtime dispatches task bodies through RunDetachable, so a
// stolen body only holds the caller until it calls Detach; the blocking
// rest of it runs on its own goroutine.
type WorkStealing struct {
	delegate Scheduler

	mu    sync.Mutex
	queue list.List
}

// NewWorkStealing wraps delegate. A nil delegate means Goroutines.
func NewWorkStealing(delegate Scheduler) *WorkStealing {
	if delegate == nil {
		delegate = Goroutines
	}
	return &WorkStealing{delegate: delegate}
}

var (
	_ Scheduler = (*WorkStealing)(nil)
	_ Advancer  = (*WorkStealing)(nil)
)

type stealableTask struct {
	owner *WorkStealing
	fn    func()

	// elem is non-nil while the task sits in owner.queue. Guarded by owner.mu.
	elem *list.Element

	// consumed is a write-once hint that lets the delegate skip locking
	// for tasks that were already stolen.
	consumed atomic.Bool
}

func (w *WorkStealing) Dispatch(task func()) {
	t := &stealableTask{owner: w, fn: task}

	w.mu.Lock()
	t.elem = w.queue.PushBack(t)
	w.mu.Unlock()

	// Outside the lock: an in-place delegate runs t right here and may
	// dispatch more work.
	w.delegate.Dispatch(t.runFromDelegate)
}

// AdvanceUntilIdle runs every task queued on w, in dispatch order, until
// none is left. Tasks dispatched by those tasks also run before it returns.
//
// It is safe to call reentrantly from inside a task it runs: the nested
// call continues draining the same FIFO and no task runs twice.
func (w *WorkStealing) AdvanceUntilIdle() {
	for {
		t := w.next()
		if t == nil {
			return
		}
		t.run()
	}
}

// Pending returns the number of dispatched tasks that have not started.
func (w *WorkStealing) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Len()
}

func (w *WorkStealing) next() *stealableTask {
	w.mu.Lock()
	defer w.mu.Unlock()

	front := w.queue.Front()
	if front == nil {
		return nil
	}
	t := front.Value.(*stealableTask)
	w.queue.Remove(front)
	t.elem = nil
	return t
}

// claim removes t from the FIFO if it is still there.
func (w *WorkStealing) claim(t *stealableTask) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t.elem == nil {
		return false
	}
	w.queue.Remove(t.elem)
	t.elem = nil
	return true
}

func (t *stealableTask) runFromDelegate() {
	if t.consumed.Load() {
		return
	}
	if t.owner.claim(t) {
		t.run()
	}
}

// run must only be called by the side that removed t from the FIFO.
func (t *stealableTask) run() {
	t.consumed.Store(true)
	t.fn()
}
