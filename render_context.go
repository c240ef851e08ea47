package flowtree

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/worker"
)

// RenderContext is handed to a render body. Children, tasks, workers and
// remembered values may only be declared while the body runs; after it
// returns, every declaration panics. The Sink stays usable.
type RenderContext[P, S, O any] struct {
	raw api.RenderContext
}

// Sink returns the node's action sink. Sending through it while the render
// body is still running panics; capture it in handlers and tasks instead.
func (c *RenderContext[P, S, O]) Sink() Sink[P, S, O] {
	return Sink[P, S, O]{raw: c.raw.Sink()}
}

// RunningTask keeps fn running for as long as the node declares key. A
// task already running under key keeps running; fn is ignored then.
func (c *RenderContext[P, S, O]) RunningTask(key string, fn func(ctx context.Context, sink Sink[P, S, O]) error) {
	c.raw.RunningTask(key, api.TaskFunc(func(ctx context.Context, sink api.Sink) error {
		return fn(ctx, Sink[P, S, O]{raw: sink})
	}))
}

// Raw exposes the untyped context for interop with api.Definition code.
func (c *RenderContext[P, S, O]) Raw() api.RenderContext { return c.raw }

// RenderChild declares child with props under key and returns its
// rendering. Outputs of the child are turned into actions on this node by
// handler; a nil handler, or a handler returning the zero Action, drops
// them.
func RenderChild[CP, CO, CR, P, S, O any](
	ctx *RenderContext[P, S, O],
	child Workflow[CP, CO, CR],
	props CP,
	key string,
	handler func(CO) Action[P, S, O],
) CR {
	var h api.OutputHandler
	if handler != nil {
		h = func(out any) api.Action {
			return handler(child.output(out)).untyped()
		}
	}
	return child.rendering(ctx.raw.RenderChild(child.definition(), child.props(props), key, h))
}

// Remember returns the value calc produced for key, calling calc again
// only when inputs changed since the previous pass. Using the same key
// twice in one pass panics.
func Remember[T, P, S, O any](ctx *RenderContext[P, S, O], key string, calc func() T, inputs ...any) T {
	v := ctx.raw.Remember(key, reflect.TypeFor[T](), inputs, func() any { return calc() })
	return as[T](v)
}

// RunningWorker runs w for as long as the node declares key, turning every
// emitted value into an action with handler. A worker already running under
// key continues when worker.SameWork says so; it then picks up the latest
// handler.
func RunningWorker[T, P, S, O any](ctx *RenderContext[P, S, O], key string, w worker.Worker[T], handler func(T) Action[P, S, O]) {
	t := &workerTask[T]{worker: w}
	h := func(v T) api.Action { return handler(v).untyped() }
	t.handler.Store(&h)
	ctx.raw.RunningTask(key, t)
}

// workerTask adapts a worker.Worker to api.Task.
type workerTask[T any] struct {
	worker  worker.Worker[T]
	handler atomic.Pointer[func(T) api.Action]
}

var (
	_ api.SameWorker  = (*workerTask[int])(nil)
	_ api.TaskUpdater = (*workerTask[int])(nil)
)

func (t *workerTask[T]) Run(ctx context.Context, sink api.Sink) error {
	emit := func(ctx context.Context, v T) error {
		a := (*t.handler.Load())(v)
		if a == nil {
			return nil
		}
		return sink.SendAndWait(ctx, a)
	}
	return t.worker.Run(ctx, emit)
}

func (t *workerTask[T]) SameWork(other api.Task) bool {
	o, ok := other.(*workerTask[T])
	return ok && worker.SameWork(t.worker, o.worker)
}

func (t *workerTask[T]) UpdateFrom(next api.Task) {
	t.handler.Store(next.(*workerTask[T]).handler.Load())
}
