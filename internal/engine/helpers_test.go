package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// testWorkflow is a Definition assembled from funcs. Unset hooks fall back
// to "state is props", "keep state" and "no snapshot".
type testWorkflow struct {
	identity     api.Identity
	initial      func(props any, snapshot *api.Snapshot) any
	propsChanged func(old, new, state any) any
	render       func(ctx api.RenderContext, props, state any) any
	snapshot     func(state any) *api.Snapshot
}

func (w *testWorkflow) Identity() api.Identity { return w.identity }

func (w *testWorkflow) InitialState(props any, snapshot *api.Snapshot) any {
	if w.initial != nil {
		return w.initial(props, snapshot)
	}
	return props
}

func (w *testWorkflow) PropsChanged(old, new, state any) any {
	if w.propsChanged != nil {
		return w.propsChanged(old, new, state)
	}
	return state
}

func (w *testWorkflow) Render(ctx api.RenderContext, props, state any) any {
	if w.render != nil {
		return w.render(ctx, props, state)
	}
	return state
}

func (w *testWorkflow) SnapshotState(state any) *api.Snapshot {
	if w.snapshot != nil {
		return w.snapshot(state)
	}
	return nil
}

func act(name string, fn func(props, state any) api.Update) api.Action {
	return api.ActionFunc{Label: name, Fn: fn}
}

// setState returns an action replacing state, optionally with an output.
func setState(name string, state any, output ...any) api.Action {
	return act(name, func(_, _ any) api.Update {
		u := api.Update{State: state}
		if len(output) > 0 {
			u.Output, u.HasOutput = output[0], true
		}
		return u
	})
}

func newTestRunner(t *testing.T, def api.Definition, props any, opts Options) *Runner {
	t.Helper()
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.Immediate
	}
	r, err := NewRunner(context.Background(), def, props, nil, opts)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func mustRender(t *testing.T, r *Runner) any {
	t.Helper()
	rendering, err := r.Render()
	require.NoError(t, err)
	return rendering
}

func mustTurn(t *testing.T, r *Runner) Turn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	turn, err := r.NextTurn(ctx)
	require.NoError(t, err)
	return turn
}

func requireUsage(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	var ue *api.UsageError
	require.True(t, errors.As(err, &ue), "expected a *api.UsageError in %v", err)
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
