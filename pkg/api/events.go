package api

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EventType identifies a node lifecycle event.
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventPropsChanged     EventType = "session.props_changed"
	EventRendered         EventType = "session.rendered"
	EventActionApplied    EventType = "action.applied"
	EventSnapshotTaken    EventType = "session.snapshot"
	EventSessionCancelled EventType = "session.cancelled"
)

// NodeEvent is a small history record for audit and debugging.
type NodeEvent struct {
	Type    EventType
	Session int64
	Path    string
	At      time.Time

	// Small, human-oriented details (action name, cancel cause). Keep it
	// low volume.
	Detail string
}

// EventRecorder is an Interceptor that appends every lifecycle event to an
// in-memory history.
type EventRecorder struct {
	NoopInterceptor

	mu     sync.Mutex
	events []NodeEvent
	now    func() time.Time
}

// NewEventRecorder returns an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{now: time.Now}
}

func (r *EventRecorder) record(t EventType, s *Session, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	r.events = append(r.events, NodeEvent{
		Type:    t,
		Session: s.ID,
		Path:    s.Path(),
		At:      now(),
		Detail:  detail,
	})
}

// Events returns a copy of the recorded history.
func (r *EventRecorder) Events() []NodeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NodeEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []EventType {
	events := r.Events()
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func (r *EventRecorder) OnSessionStarted(_ context.Context, s *Session) {
	r.record(EventSessionStarted, s, "")
}

func (r *EventRecorder) OnPropsChanged(old, new, state any, proceed func(old, new, state any) any, s *Session) any {
	r.record(EventPropsChanged, s, "")
	return proceed(old, new, state)
}

func (r *EventRecorder) OnRender(props, state any, proceed func(props, state any) any, s *Session) any {
	r.record(EventRendered, s, "")
	return proceed(props, state)
}

func (r *EventRecorder) OnSnapshotState(state any, proceed func(any) *Snapshot, s *Session) *Snapshot {
	r.record(EventSnapshotTaken, s, "")
	return proceed(state)
}

func (r *EventRecorder) OnActionApplied(s *Session, action string, applied ActionApplied) {
	r.record(EventActionApplied, s, fmt.Sprintf("%s changed=%t", action, applied.StateChanged))
}

func (r *EventRecorder) OnSessionCancelled(s *Session, cause error) {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	r.record(EventSessionCancelled, s, detail)
}
