package engine

import (
	"runtime/debug"

	"github.com/petrijr/flowtree/pkg/api"
)

// nodePanic tags a panic with the innermost node it was raised in.
type nodePanic struct {
	session *api.Session
	value   any
	stack   []byte
}

// annotatePanic must be deferred directly. It re-panics with a *nodePanic
// naming n unless a deeper node already did.
func (n *Node) annotatePanic() {
	if r := recover(); r != nil {
		if _, ok := r.(*nodePanic); ok {
			panic(r)
		}
		panic(&nodePanic{session: n.session, value: r, stack: debug.Stack()})
	}
}

// asRuntimeError converts a recovered value into the error a runtime
// fails with.
func asRuntimeError(r any) *api.RuntimeError {
	if np, ok := r.(*nodePanic); ok {
		return &api.RuntimeError{
			Node: np.session.Path(),
			Err:  &api.PanicError{Value: np.value, Stack: np.stack},
		}
	}
	return &api.RuntimeError{
		Node: "runtime",
		Err:  &api.PanicError{Value: r, Stack: debug.Stack()},
	}
}
