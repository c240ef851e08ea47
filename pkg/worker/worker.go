package worker

import (
	"context"
	"reflect"

	"github.com/petrijr/flowtree/pkg/scheduler"
)

// Emit hands one value to the workflow that runs the worker. It returns
// once the resulting action was applied, or with an error when the
// workflow stopped listening.
type Emit[T any] func(ctx context.Context, v T) error

// Worker is a typed unit of asynchronous work declared from a render
// body. It runs until it returns or ctx is cancelled, which happens when
// its workflow stops declaring it.
type Worker[T any] interface {
	Run(ctx context.Context, emit Emit[T]) error
}

// SameWorker is implemented by workers that decide for themselves whether
// a re-declaration under the same key continues them. Without it, workers
// of the same dynamic type continue.
type SameWorker interface {
	SameWork(other any) bool
}

// SameWork reports whether declared continues running.
func SameWork(running, declared any) bool {
	if sw, ok := running.(SameWorker); ok {
		return sw.SameWork(declared)
	}
	return reflect.TypeOf(running) == reflect.TypeOf(declared)
}

// Func adapts a function to Worker.
type Func[T any] func(ctx context.Context, emit Emit[T]) error

func (f Func[T]) Run(ctx context.Context, emit Emit[T]) error { return f(ctx, emit) }

// Once runs fn and emits its result. On an in-place scheduler fn runs on
// the dispatching goroutine; a fn that blocks should call
// scheduler.Detach(ctx) first.
func Once[T any](fn func(ctx context.Context) (T, error)) Worker[T] {
	return Func[T](func(ctx context.Context, emit Emit[T]) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		return emit(ctx, v)
	})
}

// FromChannel emits every value received on ch until it is closed.
func FromChannel[T any](ch <-chan T) Worker[T] {
	return &channelWorker[T]{ch: ch}
}

type channelWorker[T any] struct {
	ch <-chan T
}

func (w *channelWorker[T]) Run(ctx context.Context, emit Emit[T]) error {
	scheduler.Detach(ctx)
	for {
		select {
		case v, ok := <-w.ch:
			if !ok {
				return nil
			}
			if err := emit(ctx, v); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SameWork continues a channel worker only while it reads the same channel.
func (w *channelWorker[T]) SameWork(other any) bool {
	o, ok := other.(*channelWorker[T])
	return ok && o.ch == w.ch
}

// SameWorkAs wraps w so that same reports whether a re-declaration
// continues it.
func SameWorkAs[T any](w Worker[T], same func(other Worker[T]) bool) Worker[T] {
	return &matchedWorker[T]{Worker: w, same: same}
}

type matchedWorker[T any] struct {
	Worker[T]
	same func(other Worker[T]) bool
}

func (m *matchedWorker[T]) SameWork(other any) bool {
	o, ok := other.(*matchedWorker[T])
	if !ok {
		return false
	}
	return m.same(o.Worker)
}
