// Package engine runs a tree of workflow nodes: render passes with
// child, task and remember reconciliation, and the arbitration loop that
// applies one action per turn.
package engine

import (
	"context"
	"sync"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
)

// Options configures a Runner.
type Options struct {
	// Scheduler runs task bodies. Defaults to scheduler.Goroutines.
	Scheduler   scheduler.Scheduler
	Config      api.RuntimeConfig
	Interceptor api.Interceptor
}

// Turn describes one arbitration turn at the root.
type Turn struct {
	Applied      api.ActionApplied
	PropsChanged bool
}

// Step is the result of waiting for work and rendering once.
type Step struct {
	Rendering any
	Rendered  bool
	Output    any
	HasOutput bool
}

// Runner drives a tree from its root. Render, Snapshot, TryTurn, NextTurn,
// Step and Close must be called from one goroutine at a time; SetProps,
// Cancel, Done and Err are safe from anywhere.
type Runner struct {
	env    *env
	def    api.Definition
	root   *Node
	props  any
	ctx    context.Context
	cancel context.CancelCauseFunc

	mu              sync.Mutex
	pendingProps    any
	hasPendingProps bool
}

// NewRunner creates the root node. It does not render.
func NewRunner(ctx context.Context, def api.Definition, props any, snapshot *api.TreeSnapshot, opts Options) (*Runner, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	r := &Runner{def: def, props: props, ctx: ctx, cancel: cancel}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.Goroutines
	}
	interceptor := opts.Interceptor
	if interceptor == nil {
		interceptor = api.NoopInterceptor{}
	}
	r.env = &env{
		scheduler:   sched,
		config:      opts.Config,
		interceptor: interceptor,
		wake:        make(chan struct{}, 1),
		fail:        r.fail,
	}

	err := r.guard(func() {
		r.root = newNodeWithContext(r.env, ctx, nil, api.NodeID{Identity: def.Identity()}, def, props, snapshot)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) fail(err error) { r.cancel(err) }

// guard runs fn and turns a panic into a runtime failure.
func (r *Runner) guard(fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			rerr := asRuntimeError(v)
			r.fail(rerr)
			err = rerr
		}
	}()
	fn()
	return nil
}

func (r *Runner) Root() *Node { return r.root }

func (r *Runner) Config() api.RuntimeConfig { return r.env.config }

func (r *Runner) Scheduler() scheduler.Scheduler { return r.env.scheduler }

// Render runs a render pass from the root with the current props.
func (r *Runner) Render() (rendering any, err error) {
	if r.ctx.Err() != nil {
		return nil, context.Cause(r.ctx)
	}
	err = r.guard(func() { rendering = r.root.render(r.def, r.props) })
	return rendering, err
}

// Snapshot captures the whole tree.
func (r *Runner) Snapshot() (tree *api.TreeSnapshot, err error) {
	err = r.guard(func() { tree = r.root.Snapshot() })
	return tree, err
}

// SetProps offers new root props. Only the latest offer is kept; it is
// applied by a later turn unless it equals the current props.
func (r *Runner) SetProps(props any) {
	r.mu.Lock()
	r.pendingProps = props
	r.hasPendingProps = true
	r.mu.Unlock()
	r.env.signal()
}

func (r *Runner) takeProps() (any, bool) {
	r.mu.Lock()
	props, ok := r.pendingProps, r.hasPendingProps
	r.pendingProps, r.hasPendingProps = nil, false
	r.mu.Unlock()
	if !ok || equal(props, r.props) {
		return nil, false
	}
	return props, true
}

// TryTurn takes one turn if any source is ready: the tree first, then a
// pending props update.
func (r *Runner) TryTurn() (turn Turn, ok bool, err error) {
	if r.ctx.Err() != nil {
		return Turn{}, false, context.Cause(r.ctx)
	}
	err = r.guard(func() {
		if applied, done := r.root.tryApplyNext(); done {
			turn, ok = Turn{Applied: applied}, true
			return
		}
		if props, changed := r.takeProps(); changed {
			r.props = props
			turn, ok = Turn{PropsChanged: true}, true
		}
	})
	return turn, ok, err
}

// NextTurn blocks until a turn was taken, the runtime stopped, or ctx is
// done.
func (r *Runner) NextTurn(ctx context.Context) (Turn, error) {
	for {
		turn, ok, err := r.TryTurn()
		if err != nil || ok {
			return turn, err
		}
		select {
		case <-r.env.wake:
		case <-r.ctx.Done():
			return Turn{}, context.Cause(r.ctx)
		case <-ctx.Done():
			return Turn{}, ctx.Err()
		}
	}
}

// Step waits for the next turn and renders if the runtime config asks for
// it.
func (r *Runner) Step(ctx context.Context) (Step, error) {
	turn, err := r.NextTurn(ctx)
	if err != nil {
		return Step{}, err
	}
	step := Step{Output: turn.Applied.Output, HasOutput: turn.Applied.HasOutput}
	changed := turn.Applied.StateChanged || turn.PropsChanged

	if r.env.config.ConflateStaleRenderings {
		for !step.HasOutput {
			next, ok, err := r.TryTurn()
			if err != nil {
				return Step{}, err
			}
			if !ok {
				break
			}
			changed = changed || next.Applied.StateChanged || next.PropsChanged
			step.Output, step.HasOutput = next.Applied.Output, next.Applied.HasOutput
		}
	}

	if changed || !r.env.config.RenderOnlyWhenStateChanges {
		step.Rendering, err = r.Render()
		if err != nil {
			return Step{}, err
		}
		step.Rendered = true
	}
	return step, nil
}

// PendingActions counts actions queued anywhere in the tree.
func (r *Runner) PendingActions() int { return r.root.pendingActions() }

// Cancel stops the runtime with cause. Tasks see their contexts cancelled
// right away; the tree itself is torn down by Close.
func (r *Runner) Cancel(cause error) { r.cancel(cause) }

// Close cancels the runtime, if still running, and tears the tree down.
func (r *Runner) Close() {
	r.cancel(api.ErrRuntimeCancelled)
	r.root.Cancel(context.Cause(r.ctx))
}

func (r *Runner) Done() <-chan struct{} { return r.ctx.Done() }

// Err returns nil while running, otherwise the first cause the runtime was
// stopped with.
func (r *Runner) Err() error {
	if r.ctx.Err() == nil {
		return nil
	}
	return context.Cause(r.ctx)
}
