package observe

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/flowtree/pkg/api"
)

const tracerName = "github.com/petrijr/flowtree"

// TracingInterceptor opens one span per node session, nested like the
// tree, with a child span per render pass and an event per applied
// action.
type TracingInterceptor struct {
	api.NoopInterceptor

	tracer trace.Tracer
	spans  sync.Map // session id -> *sessionSpan
}

type sessionSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewTracingInterceptor traces with tp. A nil tp means the global
// provider.
func NewTracingInterceptor(tp trace.TracerProvider) *TracingInterceptor {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingInterceptor{tracer: tp.Tracer(tracerName)}
}

var _ api.Interceptor = (*TracingInterceptor)(nil)

func sessionAttributes(s *api.Session) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("flowtree.workflow", s.Identity.String()),
		attribute.String("flowtree.key", s.Key),
		attribute.Int64("flowtree.session_id", s.ID),
	}
}

func (t *TracingInterceptor) session(s *api.Session) (*sessionSpan, bool) {
	v, ok := t.spans.Load(s.ID)
	if !ok {
		return nil, false
	}
	return v.(*sessionSpan), true
}

func (t *TracingInterceptor) OnSessionStarted(ctx context.Context, s *api.Session) {
	if s.Parent != nil {
		if parent, ok := t.session(s.Parent); ok {
			ctx = parent.ctx
		}
	}
	ctx, span := t.tracer.Start(ctx, "flowtree.session", trace.WithAttributes(sessionAttributes(s)...))
	t.spans.Store(s.ID, &sessionSpan{ctx: ctx, span: span})
}

func (t *TracingInterceptor) OnRender(props, state any, proceed func(props, state any) any, s *api.Session) any {
	ss, ok := t.session(s)
	if !ok {
		return proceed(props, state)
	}
	_, span := t.tracer.Start(ss.ctx, "flowtree.render")
	defer span.End()
	return proceed(props, state)
}

func (t *TracingInterceptor) OnActionApplied(s *api.Session, action string, applied api.ActionApplied) {
	if ss, ok := t.session(s); ok {
		ss.span.AddEvent("action_applied", trace.WithAttributes(
			attribute.String("flowtree.action", action),
			attribute.Bool("flowtree.state_changed", applied.StateChanged),
			attribute.Bool("flowtree.has_output", applied.HasOutput),
		))
	}
}

func (t *TracingInterceptor) OnSessionCancelled(s *api.Session, cause error) {
	v, ok := t.spans.LoadAndDelete(s.ID)
	if !ok {
		return
	}
	span := v.(*sessionSpan).span
	if cause != nil && !errors.Is(cause, api.ErrNodeCancelled) && !errors.Is(cause, api.ErrRuntimeCancelled) {
		span.RecordError(cause)
		span.SetStatus(codes.Error, cause.Error())
	}
	span.End()
}
