package flowtree

import (
	"context"

	"github.com/petrijr/flowtree/pkg/api"
)

// Action is a state transition for a node with props P, state S and
// output O. The zero Action does nothing; returning it from an output
// handler leaves the node untouched.
type Action[P, S, O any] struct {
	// Name shows up in logs, interceptors and usage errors.
	Name  string
	Apply func(u *Updater[P, S, O])
}

// NewAction is shorthand for an Action literal.
func NewAction[P, S, O any](name string, apply func(u *Updater[P, S, O])) Action[P, S, O] {
	return Action[P, S, O]{Name: name, Apply: apply}
}

func (a Action[P, S, O]) untyped() api.Action {
	if a.Apply == nil {
		return nil
	}
	return typedAction[P, S, O]{a}
}

type typedAction[P, S, O any] struct {
	a Action[P, S, O]
}

func (t typedAction[P, S, O]) Name() string { return t.a.Name }

func (t typedAction[P, S, O]) Apply(props, state any) api.Update {
	u := &Updater[P, S, O]{Props: as[P](props), State: as[S](state)}
	t.a.Apply(u)
	return api.Update{State: u.State, Output: u.output, HasOutput: u.hasOutput}
}

// Updater is handed to Action.Apply. Assign State to change the node's
// state; call SetOutput to emit an output to the parent.
type Updater[P, S, O any] struct {
	Props P
	State S

	output    O
	hasOutput bool
}

// SetOutput emits o to the parent's output handler once the action was
// applied. Calling it again replaces the earlier output.
func (u *Updater[P, S, O]) SetOutput(o O) {
	u.output, u.hasOutput = o, true
}

// Sink accepts actions for one node. It is safe for concurrent use.
type Sink[P, S, O any] struct {
	raw api.Sink
}

// Send queues a. The zero Action is ignored.
func (s Sink[P, S, O]) Send(a Action[P, S, O]) {
	if ua := a.untyped(); ua != nil {
		s.raw.Send(ua)
	}
}

// SendAndWait queues a and blocks until it was applied, the node went away
// (api.ErrNodeCancelled) or ctx is done.
func (s Sink[P, S, O]) SendAndWait(ctx context.Context, a Action[P, S, O]) error {
	ua := a.untyped()
	if ua == nil {
		return nil
	}
	return s.raw.SendAndWait(ctx, ua)
}
