package api

import (
	"context"
	"errors"
	"fmt"
)

// Usage error kinds. A *UsageError wraps exactly one of these.
var (
	ErrDuplicateChild        = errors.New("duplicate child declaration")
	ErrDuplicateTask         = errors.New("duplicate task declaration")
	ErrDuplicateRemember     = errors.New("duplicate remember declaration")
	ErrRememberShapeMismatch = errors.New("remember result type mismatch")
	ErrSendDuringRender      = errors.New("action sent during render")
	ErrContextFrozen         = errors.New("render context used after render returned")
)

var (
	// ErrNodeCancelled is returned to callers waiting on an action whose
	// node was torn down before the action was applied.
	ErrNodeCancelled = errors.New("node cancelled")

	// ErrRuntimeCancelled is the cause recorded when a runtime is stopped
	// through Cancel.
	ErrRuntimeCancelled = errors.New("runtime cancelled")

	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidIdentity = errors.New("invalid identity")
)

// UsageError reports a programming mistake in a render body: duplicate
// declarations, sending during render, using a stale context. The engine
// raises it with panic at the offending call.
type UsageError struct {
	Kind error
	Msg  string
}

func (e *UsageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *UsageError) Unwrap() error { return e.Kind }

// Usagef builds a *UsageError of the given kind.
func Usagef(kind error, format string, args ...any) *UsageError {
	return &UsageError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// RuntimeError is the cause a runtime fails with when a render body or a
// task fails. Node names the node (as a NodeID path) the failure came from.
type RuntimeError struct {
	Node string
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("flowtree: %s: %v", e.Node, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it is itself an error, so a
// *UsageError raised by panic can still be matched with errors.Is.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsCancellation reports whether err is the result of ctx being cancelled,
// as opposed to a real failure.
func IsCancellation(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Cause(ctx))
}
