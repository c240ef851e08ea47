package api

import (
	"context"
	"strings"
)

// Session describes one node for the lifetime it stays in the tree.
type Session struct {
	ID       int64
	Identity Identity
	Key      string
	Parent   *Session
}

// Path renders the node ids from the root down to s.
func (s *Session) Path() string {
	if s == nil {
		return ""
	}
	var parts []string
	for cur := s; cur != nil; cur = cur.Parent {
		parts = append(parts, NodeID{Identity: cur.Identity, Key: cur.Key}.String())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

// Interceptor can observe and wrap the calls the engine makes into
// workflows. The On* wrappers receive a proceed function that performs the
// real call; an interceptor may change arguments or results.
//
// Implementations must be safe for use from the runtime goroutine and,
// for OnSessionCancelled, from whichever goroutine tears the tree down.
type Interceptor interface {
	OnSessionStarted(ctx context.Context, s *Session)
	OnInitialState(props any, snapshot *Snapshot, proceed func(any, *Snapshot) any, s *Session) any
	OnPropsChanged(old, new, state any, proceed func(old, new, state any) any, s *Session) any
	OnRender(props, state any, proceed func(props, state any) any, s *Session) any
	OnSnapshotState(state any, proceed func(any) *Snapshot, s *Session) *Snapshot
	OnActionApplied(s *Session, action string, applied ActionApplied)
	OnSessionCancelled(s *Session, cause error)
}

// NoopInterceptor passes every call through. Embed it to implement only
// some hooks.
type NoopInterceptor struct{}

func (NoopInterceptor) OnSessionStarted(context.Context, *Session) {}

func (NoopInterceptor) OnInitialState(props any, snapshot *Snapshot, proceed func(any, *Snapshot) any, _ *Session) any {
	return proceed(props, snapshot)
}

func (NoopInterceptor) OnPropsChanged(old, new, state any, proceed func(old, new, state any) any, _ *Session) any {
	return proceed(old, new, state)
}

func (NoopInterceptor) OnRender(props, state any, proceed func(props, state any) any, _ *Session) any {
	return proceed(props, state)
}

func (NoopInterceptor) OnSnapshotState(state any, proceed func(any) *Snapshot, _ *Session) *Snapshot {
	return proceed(state)
}

func (NoopInterceptor) OnActionApplied(*Session, string, ActionApplied) {}

func (NoopInterceptor) OnSessionCancelled(*Session, error) {}

// ChainInterceptors composes interceptors. The first one is outermost: it
// sees calls first and results last. Nil entries are dropped.
func ChainInterceptors(list ...Interceptor) Interceptor {
	filtered := make([]Interceptor, 0, len(list))
	for _, i := range list {
		if i != nil {
			filtered = append(filtered, i)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopInterceptor{}
	case 1:
		return filtered[0]
	}
	return chain(filtered)
}

type chain []Interceptor

func (c chain) OnSessionStarted(ctx context.Context, s *Session) {
	for _, i := range c {
		i.OnSessionStarted(ctx, s)
	}
}

func (c chain) OnInitialState(props any, snapshot *Snapshot, proceed func(any, *Snapshot) any, s *Session) any {
	for idx := len(c) - 1; idx >= 0; idx-- {
		i, next := c[idx], proceed
		proceed = func(p any, snap *Snapshot) any { return i.OnInitialState(p, snap, next, s) }
	}
	return proceed(props, snapshot)
}

func (c chain) OnPropsChanged(old, new, state any, proceed func(old, new, state any) any, s *Session) any {
	for idx := len(c) - 1; idx >= 0; idx-- {
		i, next := c[idx], proceed
		proceed = func(o, n, st any) any { return i.OnPropsChanged(o, n, st, next, s) }
	}
	return proceed(old, new, state)
}

func (c chain) OnRender(props, state any, proceed func(props, state any) any, s *Session) any {
	for idx := len(c) - 1; idx >= 0; idx-- {
		i, next := c[idx], proceed
		proceed = func(p, st any) any { return i.OnRender(p, st, next, s) }
	}
	return proceed(props, state)
}

func (c chain) OnSnapshotState(state any, proceed func(any) *Snapshot, s *Session) *Snapshot {
	for idx := len(c) - 1; idx >= 0; idx-- {
		i, next := c[idx], proceed
		proceed = func(st any) *Snapshot { return i.OnSnapshotState(st, next, s) }
	}
	return proceed(state)
}

func (c chain) OnActionApplied(s *Session, action string, applied ActionApplied) {
	for _, i := range c {
		i.OnActionApplied(s, action, applied)
	}
}

func (c chain) OnSessionCancelled(s *Session, cause error) {
	for _, i := range c {
		i.OnSessionCancelled(s, cause)
	}
}
