package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
)

const (
	pendingWaiting int32 = iota
	pendingClaimed
	pendingAbandoned
)

// pendingAction is one queued action. done is set only for SendAndWait and
// receives exactly one value.
type pendingAction struct {
	action api.Action
	done   chan error
	state  atomic.Int32
}

func (p *pendingAction) resolve(err error) {
	if p.done != nil {
		p.done <- err
	}
}

// actionQueue is a node's FIFO of sink actions. Producers are task
// goroutines and external callers; the only consumer is the arbitration
// loop.
type actionQueue struct {
	mu     sync.Mutex
	items  []*pendingAction
	closed bool
	wake   func()
}

func newActionQueue(wake func()) *actionQueue {
	return &actionQueue{wake: wake}
}

// push appends p and wakes the loop. It reports false when the queue was
// closed because its node is gone.
func (q *actionQueue) push(p *pendingAction) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, p)
	q.mu.Unlock()
	q.wake()
	return true
}

// pop claims the oldest action whose sender is still waiting for it.
func (q *actionQueue) pop() (*pendingAction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) > 0 {
		p := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		if p.state.CompareAndSwap(pendingWaiting, pendingClaimed) {
			return p, true
		}
	}
	return nil, false
}

func (q *actionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close rejects further pushes and resolves every queued waiter with err.
func (q *actionQueue) close(err error) {
	q.mu.Lock()
	q.closed = true
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, p := range items {
		if p.state.CompareAndSwap(pendingWaiting, pendingClaimed) {
			p.resolve(err)
		}
	}
}

func (q *actionQueue) send(a api.Action) {
	q.push(&pendingAction{action: a})
}

func (q *actionQueue) sendAndWait(ctx context.Context, a api.Action) error {
	p := &pendingAction{action: a, done: make(chan error, 1)}
	if !q.push(p) {
		return api.ErrNodeCancelled
	}
	select {
	case err := <-p.done:
		return err
	case <-ctx.Done():
		if p.state.CompareAndSwap(pendingWaiting, pendingAbandoned) {
			return ctx.Err()
		}
		// Already claimed: the result is on its way.
		return <-p.done
	}
}

// nodeSink is the sink handed to tasks. Tasks only run after the pass that
// declared them is frozen, so it never checks the render phase.
type nodeSink struct {
	queue   *actionQueue
	taskCtx context.Context
}

func (s nodeSink) Send(a api.Action) { s.queue.send(a) }

// SendAndWait detaches the task first: the action is applied by the
// arbitration loop, which may be the goroutine that started the task.
func (s nodeSink) SendAndWait(ctx context.Context, a api.Action) error {
	scheduler.Detach(s.taskCtx)
	return s.queue.sendAndWait(ctx, a)
}
