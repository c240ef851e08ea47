package flowtree

import (
	"context"
	"sync"
)

// LocalRunner owns a Runtime together with its props channel and a log of
// root outputs, for development, tests and simple single-process use.
//
// Typical usage:
//
//	runner, err := flowtree.NewLocalRunner(ctx, checkout, cart, flowtree.Options{})
//	...
//	runner.SetProps(updatedCart)
//	r, err := runner.AwaitRendering(ctx, func(r Screen) bool { return r.Done })
//	...
//	runner.Stop()
type LocalRunner[P, O, R any] struct {
	// Runtime is the runtime driven by this runner.
	Runtime *Runtime[R]

	props  chan P
	notify chan struct{}

	mu      sync.Mutex
	outputs []O
}

// NewLocalRunner starts w with initial props.
func NewLocalRunner[P, O, R any](ctx context.Context, w Workflow[P, O, R], props P, opts Options) (*LocalRunner[P, O, R], error) {
	r := &LocalRunner[P, O, R]{
		props:  make(chan P),
		notify: make(chan struct{}, 1),
	}
	rt, err := RenderWorkflow(ctx, w, props, r.props, r.record, opts)
	if err != nil {
		return nil, err
	}
	r.Runtime = rt
	return r, nil
}

func (r *LocalRunner[P, O, R]) record(o O) {
	r.mu.Lock()
	r.outputs = append(r.outputs, o)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// SetProps hands new root props to the runtime. It returns false if the
// runtime stopped first.
func (r *LocalRunner[P, O, R]) SetProps(p P) bool {
	select {
	case r.props <- p:
		return true
	case <-r.Runtime.Done():
		return false
	}
}

// Rendering returns the latest rendering.
func (r *LocalRunner[P, O, R]) Rendering() R {
	return r.Runtime.Current().Rendering
}

// Outputs returns every root output emitted so far, oldest first.
func (r *LocalRunner[P, O, R]) Outputs() []O {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]O(nil), r.outputs...)
}

// AwaitRendering blocks until a published rendering satisfies match. It
// fails with the runtime's error if the runtime stops first.
func (r *LocalRunner[P, O, R]) AwaitRendering(ctx context.Context, match func(R) bool) (R, error) {
	if cur := r.Rendering(); match(cur) {
		return cur, nil
	}
	for {
		select {
		case v := <-r.Runtime.Renderings():
			if match(v.Rendering) {
				return v.Rendering, nil
			}
		case <-r.Runtime.Done():
			var zero R
			return zero, r.Runtime.Err()
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		}
	}
}

// AwaitOutputs blocks until at least n outputs were recorded.
func (r *LocalRunner[P, O, R]) AwaitOutputs(ctx context.Context, n int) ([]O, error) {
	for {
		if out := r.Outputs(); len(out) >= n {
			return out, nil
		}
		select {
		case <-r.notify:
		case <-r.Runtime.Done():
			if out := r.Outputs(); len(out) >= n {
				return out, nil
			}
			return r.Outputs(), r.Runtime.Err()
		case <-ctx.Done():
			return r.Outputs(), ctx.Err()
		}
	}
}

// Stop cancels the runtime and waits until its tree was torn down.
func (r *LocalRunner[P, O, R]) Stop() {
	r.Runtime.Cancel()
	<-r.Runtime.Done()
}
