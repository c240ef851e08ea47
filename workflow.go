package flowtree

import (
	"github.com/petrijr/flowtree/pkg/api"
)

// Workflow is a typed workflow definition taking props P, emitting outputs
// O to its parent and producing renderings R.
//
// Workflows are built with Stateful, Stateless, New or MapRendering.
type Workflow[P, O, R any] interface {
	Identity() api.Identity

	definition() api.Definition
	rendering(raw any) R
	output(raw any) O
	props(p P) any
}

// Stateful is a workflow that keeps state S between render passes.
//
// Kind names the workflow type. Two declarations with the same Kind (and
// key) under one parent are the same child, so Kind must be unique per
// workflow type.
type Stateful[P, S, O, R any] struct {
	Kind string

	// InitialState builds the state of a new node. snapshot is nil unless
	// the node is restored from a TreeSnapshot.
	InitialState func(props P, snapshot *api.Snapshot) S

	// PropsChanged is called before a render pass whose props differ from
	// the previous one. Nil keeps the state.
	PropsChanged func(old, new P, state S) S

	Render func(ctx *RenderContext[P, S, O], props P, state S) R

	// SnapshotState captures state for a TreeSnapshot. Nil means the node
	// has nothing to restore.
	SnapshotState func(state S) *api.Snapshot

	// Unsnapshottable keeps the node, and everything under it, out of tree
	// snapshots.
	Unsnapshottable bool
}

var _ Workflow[int, int, int] = (*Stateful[int, int, int, int])(nil)

func (w *Stateful[P, S, O, R]) Identity() api.Identity {
	if w.Unsnapshottable {
		return api.UnsnapshottableIdentity(w.Kind)
	}
	return api.NewIdentity(w.Kind)
}

func (w *Stateful[P, S, O, R]) definition() api.Definition {
	if w.InitialState == nil {
		panic("flowtree: workflow " + w.Kind + " has no InitialState")
	}
	if w.Render == nil {
		panic("flowtree: workflow " + w.Kind + " has no Render")
	}
	return &statefulDefinition[P, S, O, R]{w: w, id: w.Identity()}
}

func (w *Stateful[P, S, O, R]) rendering(raw any) R { return as[R](raw) }
func (w *Stateful[P, S, O, R]) output(raw any) O    { return as[O](raw) }
func (w *Stateful[P, S, O, R]) props(p P) any       { return p }

type statefulDefinition[P, S, O, R any] struct {
	w  *Stateful[P, S, O, R]
	id api.Identity
}

func (d *statefulDefinition[P, S, O, R]) Identity() api.Identity { return d.id }

func (d *statefulDefinition[P, S, O, R]) InitialState(props any, snapshot *api.Snapshot) any {
	return d.w.InitialState(as[P](props), snapshot)
}

func (d *statefulDefinition[P, S, O, R]) PropsChanged(old, new, state any) any {
	if d.w.PropsChanged == nil {
		return state
	}
	return d.w.PropsChanged(as[P](old), as[P](new), as[S](state))
}

func (d *statefulDefinition[P, S, O, R]) Render(ctx api.RenderContext, props, state any) any {
	return d.w.Render(&RenderContext[P, S, O]{raw: ctx}, as[P](props), as[S](state))
}

func (d *statefulDefinition[P, S, O, R]) SnapshotState(state any) *api.Snapshot {
	if d.w.SnapshotState == nil {
		return nil
	}
	return d.w.SnapshotState(as[S](state))
}

// Stateless is a workflow whose rendering depends only on its props and
// its children. Its render context carries an empty state.
type Stateless[P, O, R any] struct {
	Kind   string
	Render func(ctx *RenderContext[P, struct{}, O], props P) R
}

var _ Workflow[int, int, int] = (*Stateless[int, int, int])(nil)

func (w *Stateless[P, O, R]) Identity() api.Identity { return api.NewIdentity(w.Kind) }

func (w *Stateless[P, O, R]) definition() api.Definition {
	if w.Render == nil {
		panic("flowtree: workflow " + w.Kind + " has no Render")
	}
	return w.stateful().definition()
}

func (w *Stateless[P, O, R]) stateful() *Stateful[P, struct{}, O, R] {
	return &Stateful[P, struct{}, O, R]{
		Kind:         w.Kind,
		InitialState: func(P, *api.Snapshot) struct{} { return struct{}{} },
		Render: func(ctx *RenderContext[P, struct{}, O], props P, _ struct{}) R {
			return w.Render(ctx, props)
		},
	}
}

func (w *Stateless[P, O, R]) rendering(raw any) R { return as[R](raw) }
func (w *Stateless[P, O, R]) output(raw any) O    { return as[O](raw) }
func (w *Stateless[P, O, R]) props(p P) any       { return p }

// mapRenderingKind is the impostor kind wrapped around the mapped workflow.
const mapRenderingKind = "flowtree.MapRendering"

// MapRendering returns a workflow that renders w as its only child and
// passes the child's rendering through fn. Outputs of w are forwarded
// unchanged.
//
// The result's identity is derived from w's, so swapping the inner
// workflow for one of another kind restarts the child.
func MapRendering[P, O, R, R2 any](w Workflow[P, O, R], fn func(R) R2) Workflow[P, O, R2] {
	return &mapRendering[P, O, R, R2]{inner: w, fn: fn}
}

type mapRendering[P, O, R, R2 any] struct {
	inner Workflow[P, O, R]
	fn    func(R) R2
}

func (m *mapRendering[P, O, R, R2]) Identity() api.Identity {
	return api.ImpostorIdentity(mapRenderingKind, m.inner.Identity())
}

func (m *mapRendering[P, O, R, R2]) definition() api.Definition {
	s := &Stateful[P, struct{}, O, R2]{
		Kind:         mapRenderingKind,
		InitialState: func(P, *api.Snapshot) struct{} { return struct{}{} },
		Render: func(ctx *RenderContext[P, struct{}, O], props P, _ struct{}) R2 {
			r := RenderChild(ctx, m.inner, props, "", forwardOutput[P, struct{}, O])
			return m.fn(r)
		},
	}
	return &statefulDefinition[P, struct{}, O, R2]{w: s, id: m.Identity()}
}

func (m *mapRendering[P, O, R, R2]) rendering(raw any) R2 { return as[R2](raw) }
func (m *mapRendering[P, O, R, R2]) output(raw any) O     { return as[O](raw) }
func (m *mapRendering[P, O, R, R2]) props(p P) any        { return p }

// forwardOutput emits a child's output from the parent without touching
// the parent's state.
func forwardOutput[P, S, O any](out O) Action[P, S, O] {
	return Action[P, S, O]{
		Name:  "flowtree.forwardOutput",
		Apply: func(u *Updater[P, S, O]) { u.SetOutput(out) },
	}
}

// as asserts v to T, mapping nil to T's zero value.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
