package scheduler

import (
	"context"
	"sync"
)

type detachKey struct{}

// RunDetachable runs body on its own goroutine and returns once body
// returned or called Detach with the context it was given. The rest of a
// detached body keeps running on its goroutine.
//
// Task bodies are dispatched through RunDetachable so that a dispatched
// unit only covers the part of a body that runs up to its first wait. An
// in-place scheduler, or AdvanceUntilIdle stealing the unit, is therefore
// never blocked by a body that waits for a channel, a timer or an action.
func RunDetachable(ctx context.Context, body func(ctx context.Context)) {
	detached := make(chan struct{})
	var once sync.Once
	ctx = context.WithValue(ctx, detachKey{}, func() { once.Do(func() { close(detached) }) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		body(ctx)
	}()

	select {
	case <-done:
	case <-detached:
	}
}

// Detach releases the unit running the calling body, if ctx was derived
// from one handed out by RunDetachable. Bodies call it right before they
// block. Calling it more than once, or outside RunDetachable, does nothing.
func Detach(ctx context.Context) {
	if fn, ok := ctx.Value(detachKey{}).(func()); ok {
		fn()
	}
}
