package flowtree

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/petrijr/flowtree/internal/engine"
	"github.com/petrijr/flowtree/internal/persistence"
	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
)

// Options configures RenderWorkflow. The zero value is ready to use.
type Options struct {
	// InitialSnapshot restores the tree. When nil and Store is set, the
	// snapshot saved under StoreKey is used instead.
	InitialSnapshot *api.TreeSnapshot

	// Interceptors wrap every node, index 0 outermost.
	Interceptors []api.Interceptor

	Config api.RuntimeConfig

	// Scheduler runs tasks and workers. Defaults to scheduler.Goroutines.
	// With Config.WorkStealingScheduler it is wrapped in a
	// scheduler.WorkStealing.
	Scheduler scheduler.Scheduler

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Store persists the encoded tree after every published rendering.
	// Writes happen on a separate goroutine and only the latest tree is
	// kept while one is in flight; Done is closed after the last write.
	// Store failures are logged and otherwise ignored.
	Store SnapshotStore

	// StoreKey defaults to the workflow's identity.
	StoreKey string
}

// RenderingAndSnapshot is what the runtime publishes after each render
// pass.
type RenderingAndSnapshot[R any] struct {
	Rendering R
	Snapshot  *api.TreeSnapshot
}

// Runtime runs one workflow tree. Its methods are safe for concurrent use.
type Runtime[R any] struct {
	runner *engine.Runner
	logger *slog.Logger
	store  SnapshotStore
	key    string
	ctx    context.Context

	renderings chan RenderingAndSnapshot[R]
	done       chan struct{}

	// saves hands the latest tree to the saver goroutine; older trees
	// nobody saved yet are replaced.
	saves chan *api.TreeSnapshot
	saved chan struct{}

	mu      sync.Mutex
	current RenderingAndSnapshot[R]
}

// RenderWorkflow starts a runtime for w. The first render pass happens
// before RenderWorkflow returns; if it fails, the tree is torn down and the
// error returned.
//
// Props received on props replace the root props; values equal to the
// current props are dropped and a closed channel leaves the runtime on the
// last value. onOutput, if not nil, is called on the runtime goroutine
// with every output the root emits, after the rendering that followed it
// was published.
func RenderWorkflow[P, O, R any](
	ctx context.Context,
	w Workflow[P, O, R],
	initialProps P,
	props <-chan P,
	onOutput func(O),
	opts Options,
) (*Runtime[R], error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime[R]{
		logger:     logger,
		store:      opts.Store,
		key:        opts.StoreKey,
		ctx:        context.WithoutCancel(ctx),
		renderings: make(chan RenderingAndSnapshot[R], 1),
		done:       make(chan struct{}),
		saves:      make(chan *api.TreeSnapshot, 1),
		saved:      make(chan struct{}),
	}
	if rt.key == "" {
		rt.key = w.Identity().String()
	}

	snapshot := opts.InitialSnapshot
	if snapshot == nil && rt.store != nil {
		snapshot = rt.loadSnapshot()
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.Goroutines
	}
	if opts.Config.WorkStealingScheduler {
		if _, ok := sched.(*scheduler.WorkStealing); !ok {
			sched = scheduler.NewWorkStealing(sched)
		}
	}

	runner, err := engine.NewRunner(ctx, w.definition(), w.props(initialProps), snapshot, engine.Options{
		Scheduler:   sched,
		Config:      opts.Config,
		Interceptor: api.ChainInterceptors(opts.Interceptors...),
	})
	if err != nil {
		return nil, err
	}
	rt.runner = runner
	go rt.saveLoop()

	rendering, err := runner.Render()
	if err == nil {
		err = rt.publish(w.rendering(rendering))
	}
	if err != nil {
		runner.Close()
		rt.stopSaving()
		close(rt.done)
		return nil, err
	}

	go forwardProps(runner, props, w)
	go runLoop(rt, w, onOutput)
	return rt, nil
}

func (rt *Runtime[R]) loadSnapshot() *api.TreeSnapshot {
	data, err := rt.store.Load(rt.ctx, rt.key)
	if errors.Is(err, persistence.ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		rt.logger.Warn("snapshot load failed", "key", rt.key, "error", err)
		return nil
	}
	tree, err := api.ParseTreeSnapshot(data)
	if err == nil {
		err = tree.Validate()
	}
	if err != nil {
		rt.logger.Warn("stored snapshot ignored", "key", rt.key, "error", err)
		return nil
	}
	return tree
}

func forwardProps[P, O, R any](runner *engine.Runner, props <-chan P, w Workflow[P, O, R]) {
	for {
		select {
		case p, ok := <-props:
			if !ok {
				return
			}
			runner.SetProps(w.props(p))
		case <-runner.Done():
			return
		}
	}
}

// runLoop applies one turn at a time until the runtime stops, then tears
// the tree down.
func runLoop[P, O, R any](rt *Runtime[R], w Workflow[P, O, R], onOutput func(O)) {
	defer close(rt.done)
	defer rt.stopSaving()
	defer rt.runner.Close()

	for {
		step, err := rt.runner.Step(rt.ctx)
		if err != nil {
			rt.stopped(err)
			return
		}
		if step.Rendered {
			if err := rt.publish(w.rendering(step.Rendering)); err != nil {
				rt.stopped(err)
				return
			}
		}
		if step.HasOutput && onOutput != nil {
			rt.deliver(func() { onOutput(w.output(step.Output)) })
		}
	}
}

func (rt *Runtime[R]) deliver(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			rt.runner.Cancel(outputPanic(v))
		}
	}()
	fn()
}

func (rt *Runtime[R]) stopped(err error) {
	var rerr *api.RuntimeError
	if errors.As(err, &rerr) {
		rt.logger.Error("workflow runtime failed", "key", rt.key, "error", err)
		return
	}
	rt.logger.Debug("workflow runtime stopped", "key", rt.key, "cause", err)
}

// publish snapshots the tree and makes rendering the current value.
func (rt *Runtime[R]) publish(rendering R) error {
	tree, err := rt.runner.Snapshot()
	if err != nil {
		return err
	}
	v := RenderingAndSnapshot[R]{Rendering: rendering, Snapshot: tree}

	rt.mu.Lock()
	rt.current = v
	rt.mu.Unlock()

	// Only the runtime goroutine sends, so after draining there is room.
	select {
	case <-rt.renderings:
	default:
	}
	rt.renderings <- v

	if rt.store != nil {
		select {
		case <-rt.saves:
		default:
		}
		rt.saves <- tree
	}
	return nil
}

// saveLoop writes trees to the store off the runtime goroutine.
func (rt *Runtime[R]) saveLoop() {
	defer close(rt.saved)
	for tree := range rt.saves {
		rt.save(tree)
	}
}

// stopSaving waits until the last published tree was written.
func (rt *Runtime[R]) stopSaving() {
	close(rt.saves)
	<-rt.saved
}

func (rt *Runtime[R]) save(tree *api.TreeSnapshot) {
	data, err := tree.Encode()
	if err != nil {
		rt.logger.Warn("snapshot encode failed", "key", rt.key, "error", err)
		return
	}
	if err := rt.store.Save(rt.ctx, rt.key, data); err != nil {
		rt.logger.Warn("snapshot save failed", "key", rt.key, "error", err)
	}
}

// Renderings delivers the latest RenderingAndSnapshot. Values nobody read
// in time are replaced by newer ones.
func (rt *Runtime[R]) Renderings() <-chan RenderingAndSnapshot[R] { return rt.renderings }

// Current returns the most recently published value.
func (rt *Runtime[R]) Current() RenderingAndSnapshot[R] {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.current
}

// Cancel stops the runtime. Running tasks see their contexts cancelled;
// Done is closed once the tree was torn down.
func (rt *Runtime[R]) Cancel() { rt.runner.Cancel(api.ErrRuntimeCancelled) }

// Done is closed once the runtime stopped and every node was cancelled.
func (rt *Runtime[R]) Done() <-chan struct{} { return rt.done }

// Err is nil while the runtime runs. Afterwards it is api.ErrRuntimeCancelled
// after Cancel, an *api.RuntimeError after a failure, or the cause of the
// parent context.
func (rt *Runtime[R]) Err() error { return rt.runner.Err() }

// AdvanceUntilIdle runs all tasks waiting on a work-stealing scheduler on
// the calling goroutine. It does nothing for other schedulers.
func (rt *Runtime[R]) AdvanceUntilIdle() {
	if adv, ok := rt.runner.Scheduler().(scheduler.Advancer); ok {
		adv.AdvanceUntilIdle()
	}
}

// outputPanic wraps a panic raised by an onOutput callback.
func outputPanic(v any) error {
	return &api.RuntimeError{
		Node: "onOutput",
		Err:  &api.PanicError{Value: v, Stack: debug.Stack()},
	}
}
