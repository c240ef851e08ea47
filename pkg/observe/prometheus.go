package observe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petrijr/flowtree/pkg/api"
)

// PrometheusInterceptor counts sessions and actions and records render
// durations, labelled by workflow kind.
type PrometheusInterceptor struct {
	api.NoopInterceptor

	sessionsStarted   *prometheus.CounterVec
	sessionsCancelled *prometheus.CounterVec
	liveSessions      prometheus.Gauge
	actionsApplied    *prometheus.CounterVec
	renderDuration    *prometheus.HistogramVec
}

// NewPrometheusInterceptor registers its collectors with reg. A nil reg
// means prometheus.DefaultRegisterer.
func NewPrometheusInterceptor(reg prometheus.Registerer) *PrometheusInterceptor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusInterceptor{
		sessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtree_sessions_started_total",
			Help: "Workflow nodes created.",
		}, []string{"workflow"}),
		sessionsCancelled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtree_sessions_cancelled_total",
			Help: "Workflow nodes torn down.",
		}, []string{"workflow"}),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "flowtree_live_sessions",
			Help: "Workflow nodes currently in a tree.",
		}),
		actionsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtree_actions_applied_total",
			Help: "Actions applied, by workflow and action name.",
		}, []string{"workflow", "action"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowtree_render_duration_seconds",
			Help:    "Time spent in render bodies, children included.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"workflow"}),
	}
}

var _ api.Interceptor = (*PrometheusInterceptor)(nil)

func (p *PrometheusInterceptor) OnSessionStarted(_ context.Context, s *api.Session) {
	p.sessionsStarted.WithLabelValues(s.Identity.RealKind()).Inc()
	p.liveSessions.Inc()
}

func (p *PrometheusInterceptor) OnRender(props, state any, proceed func(props, state any) any, s *api.Session) any {
	start := time.Now()
	defer func() {
		p.renderDuration.WithLabelValues(s.Identity.RealKind()).Observe(time.Since(start).Seconds())
	}()
	return proceed(props, state)
}

func (p *PrometheusInterceptor) OnActionApplied(s *api.Session, action string, _ api.ActionApplied) {
	p.actionsApplied.WithLabelValues(s.Identity.RealKind(), action).Inc()
}

func (p *PrometheusInterceptor) OnSessionCancelled(s *api.Session, _ error) {
	p.sessionsCancelled.WithLabelValues(s.Identity.RealKind()).Inc()
	p.liveSessions.Dec()
}
