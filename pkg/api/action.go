package api

import "context"

// Action is a queued state transition for one node. It is consumed at most
// once, by the arbitration loop of the node it was sent to.
type Action interface {
	// Name is used in logs and usage errors.
	Name() string

	// Apply computes the node's next state from its current props and
	// state, and optionally an output for the parent.
	Apply(props, state any) Update
}

// Update is the result of applying an Action.
type Update struct {
	State     any
	Output    any
	HasOutput bool
}

// ActionApplied describes one arbitration turn as seen from a node.
// StateChanged is true when the node or any node beneath it changed state
// during the turn.
type ActionApplied struct {
	Output       any
	HasOutput    bool
	StateChanged bool
}

// Sink accepts actions for a node. It is safe for concurrent use.
type Sink interface {
	// Send queues an action. Calling Send while the render body that owns
	// the sink is still running panics with ErrSendDuringRender.
	Send(Action)

	// SendAndWait queues an action and blocks until it was applied, the
	// node was cancelled (ErrNodeCancelled) or ctx is done.
	SendAndWait(ctx context.Context, a Action) error
}

// ActionFunc adapts a function to Action.
type ActionFunc struct {
	Label string
	Fn    func(props, state any) Update
}

func (a ActionFunc) Name() string { return a.Label }

func (a ActionFunc) Apply(props, state any) Update { return a.Fn(props, state) }
