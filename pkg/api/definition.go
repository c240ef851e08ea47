package api

import (
	"context"
	"reflect"
)

// Definition is the untyped contract a workflow presents to the engine.
// The typed workflows in the flowtree package implement it.
type Definition interface {
	Identity() Identity

	// InitialState builds the first state of a new node. snapshot is nil
	// when there is no prior state.
	InitialState(props any, snapshot *Snapshot) any

	// PropsChanged is called before Render whenever props differ from the
	// previous pass.
	PropsChanged(old, new, state any) any

	Render(ctx RenderContext, props, state any) any

	// SnapshotState returns the node's own snapshot, or nil.
	SnapshotState(state any) *Snapshot
}

// OutputHandler maps a child output to an action on the parent. A nil
// result leaves the parent untouched.
type OutputHandler func(output any) Action

// RenderContext is handed to Definition.Render. Declarations are only
// valid while Render runs; afterwards every declaring method panics with
// ErrContextFrozen.
type RenderContext interface {
	Sink() Sink

	// RenderChild declares a child node and returns its rendering.
	RenderChild(child Definition, props any, key string, handler OutputHandler) any

	// RunningTask declares a task that runs while the node keeps declaring
	// it under key.
	RunningTask(key string, task Task)

	// Remember returns the cached value for key, recomputing it with calc
	// when inputs differ from the previous pass.
	Remember(key string, resultType reflect.Type, inputs []any, calc func() any) any
}

// Task is a unit of concurrent work owned by a node. Run is invoked on a
// goroutine handed out by the scheduler, with a context cancelled when the
// node stops declaring the task. Returning an error that is not ctx's
// cancellation fails the runtime.
type Task interface {
	Run(ctx context.Context, sink Sink) error
}

// SameWorker lets a task decide whether a re-declaration under the same
// key continues it. Without it, tasks of the same dynamic type continue.
type SameWorker interface {
	SameWork(other Task) bool
}

// TaskUpdater receives the re-declared task when a running task continues.
type TaskUpdater interface {
	UpdateFrom(next Task)
}

// CancelHook is called synchronously when a task is cancelled, before its
// context is.
type CancelHook interface {
	OnCancel()
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context, sink Sink) error

func (f TaskFunc) Run(ctx context.Context, sink Sink) error { return f(ctx, sink) }
