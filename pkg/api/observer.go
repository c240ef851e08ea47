package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// LoggingInterceptor writes structured node lifecycle logs using log/slog.
type LoggingInterceptor struct {
	NoopInterceptor
	Logger *slog.Logger
}

// NewLoggingInterceptor creates an Interceptor that logs node lifecycle
// events with logger. If logger is nil, slog.Default() is used.
func NewLoggingInterceptor(logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{Logger: logger}
}

func sessionAttrs(s *Session) []any {
	return []any{
		slog.String("workflow", s.Identity.String()),
		slog.String("key", s.Key),
		slog.Int64("session_id", s.ID),
	}
}

func (l *LoggingInterceptor) OnSessionStarted(ctx context.Context, s *Session) {
	l.Logger.InfoContext(ctx, "session_started", sessionAttrs(s)...)
}

func (l *LoggingInterceptor) OnRender(props, state any, proceed func(props, state any) any, s *Session) any {
	start := time.Now()
	rendering := proceed(props, state)
	l.Logger.Debug("render", append(sessionAttrs(s), slog.Duration("duration", time.Since(start)))...)
	return rendering
}

func (l *LoggingInterceptor) OnActionApplied(s *Session, action string, applied ActionApplied) {
	l.Logger.Debug("action_applied", append(sessionAttrs(s),
		slog.String("action", action),
		slog.Bool("state_changed", applied.StateChanged),
		slog.Bool("has_output", applied.HasOutput),
	)...)
}

func (l *LoggingInterceptor) OnSessionCancelled(s *Session, cause error) {
	l.Logger.Info("session_cancelled", append(sessionAttrs(s), slog.Any("cause", cause))...)
}

// BasicMetrics collects counters and the average render duration. It is an
// Interceptor and can be chained with LoggingInterceptor.
type BasicMetrics struct {
	NoopInterceptor

	sessionsStarted   atomic.Int64
	sessionsCancelled atomic.Int64
	renders           atomic.Int64
	actionsApplied    atomic.Int64
	totalRenderTime   atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	SessionsStarted   int64
	SessionsCancelled int64
	LiveSessions      int64

	Renders           int64
	ActionsApplied    int64
	AvgRenderDuration time.Duration
}

func (m *BasicMetrics) OnSessionStarted(context.Context, *Session) {
	m.sessionsStarted.Add(1)
}

func (m *BasicMetrics) OnRender(props, state any, proceed func(props, state any) any, _ *Session) any {
	start := time.Now()
	rendering := proceed(props, state)
	m.renders.Add(1)
	m.totalRenderTime.Add(time.Since(start).Nanoseconds())
	return rendering
}

func (m *BasicMetrics) OnActionApplied(*Session, string, ActionApplied) {
	m.actionsApplied.Add(1)
}

func (m *BasicMetrics) OnSessionCancelled(*Session, error) {
	m.sessionsCancelled.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.sessionsStarted.Load()
	cancelled := m.sessionsCancelled.Load()
	renders := m.renders.Load()
	totalNs := m.totalRenderTime.Load()

	var avg time.Duration
	if renders > 0 {
		avg = time.Duration(totalNs / renders)
	}

	return BasicMetricsSnapshot{
		SessionsStarted:   started,
		SessionsCancelled: cancelled,
		LiveSessions:      started - cancelled,
		Renders:           renders,
		ActionsApplied:    m.actionsApplied.Load(),
		AvgRenderDuration: avg,
	}
}
