package flowtree

import (
	"fmt"

	"github.com/petrijr/flowtree/pkg/api"
)

// Builder provides a fluent API for defining stateful workflows:
//
//	counter := flowtree.New[int, int, string, string]("Counter").
//	    Initial(func(start int, _ *flowtree.Snapshot) int { return start }).
//	    Render(func(ctx *flowtree.RenderContext[int, int, string], _ int, n int) string {
//	        return fmt.Sprint(n)
//	    }).
//	    Build()
//
//	rt, err := flowtree.RenderWorkflow(ctx, counter, 0, nil, nil, flowtree.Options{})
type Builder[P, S, O, R any] struct {
	w Stateful[P, S, O, R]
}

// New creates a builder for a workflow of the given kind.
func New[P, S, O, R any](kind string) *Builder[P, S, O, R] {
	if kind == "" {
		panic("flowtree: workflow kind must not be empty")
	}
	return &Builder[P, S, O, R]{w: Stateful[P, S, O, R]{Kind: kind}}
}

// Kind returns the workflow kind.
func (b *Builder[P, S, O, R]) Kind() string {
	return b.w.Kind
}

// Initial sets how a new node computes its state.
func (b *Builder[P, S, O, R]) Initial(fn func(props P, snapshot *api.Snapshot) S) *Builder[P, S, O, R] {
	b.w.InitialState = fn
	return b
}

// InitialFromProps is Initial for workflows that ignore snapshots.
func (b *Builder[P, S, O, R]) InitialFromProps(fn func(props P) S) *Builder[P, S, O, R] {
	return b.Initial(func(props P, _ *api.Snapshot) S { return fn(props) })
}

// OnPropsChanged sets the state transition run when props change.
func (b *Builder[P, S, O, R]) OnPropsChanged(fn func(old, new P, state S) S) *Builder[P, S, O, R] {
	b.w.PropsChanged = fn
	return b
}

// Render sets the render body.
func (b *Builder[P, S, O, R]) Render(fn func(ctx *RenderContext[P, S, O], props P, state S) R) *Builder[P, S, O, R] {
	b.w.Render = fn
	return b
}

// Snapshot sets how state is captured in tree snapshots.
func (b *Builder[P, S, O, R]) Snapshot(fn func(state S) *api.Snapshot) *Builder[P, S, O, R] {
	b.w.SnapshotState = fn
	return b
}

// GobState snapshots state with encoding/gob and restores it in Initial
// when a snapshot is present. fallback computes the state otherwise.
func (b *Builder[P, S, O, R]) GobState(fallback func(props P) S) *Builder[P, S, O, R] {
	b.w.SnapshotState = func(state S) *api.Snapshot { return GobSnapshot(state) }
	return b.Initial(func(props P, snapshot *api.Snapshot) S {
		if snapshot != nil {
			if s, err := RestoreGob[S](snapshot); err == nil {
				return s
			}
		}
		return fallback(props)
	})
}

// Unsnapshottable keeps the workflow out of tree snapshots.
func (b *Builder[P, S, O, R]) Unsnapshottable() *Builder[P, S, O, R] {
	b.w.Unsnapshottable = true
	return b
}

// Build returns the workflow. It panics when Initial or Render is missing.
func (b *Builder[P, S, O, R]) Build() *Stateful[P, S, O, R] {
	if b.w.InitialState == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has no initial state", b.w.Kind))
	}
	if b.w.Render == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has no render function", b.w.Kind))
	}
	w := b.w
	return &w
}
