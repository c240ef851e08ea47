package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/stretchr/testify/require"
)

// sinkHolder renders its state and exposes the sink of its latest pass.
type sinkHolder struct {
	sink api.Sink
}

func (h *sinkHolder) workflow(kind string) *testWorkflow {
	return &testWorkflow{
		identity: api.NewIdentity(kind),
		render: func(ctx api.RenderContext, props, state any) any {
			h.sink = ctx.Sink()
			return state
		},
	}
}

func TestSendsApplyInOrderOnePerTurn(t *testing.T) {
	var h sinkHolder
	r := newTestRunner(t, h.workflow("ordered"), "init", Options{})
	mustRender(t, r)

	h.sink.Send(setState("A", "a", "outA"))
	h.sink.Send(setState("B", "b", "outB"))
	require.Equal(t, 2, r.PendingActions())

	turn := mustTurn(t, r)
	require.Equal(t, "outA", turn.Applied.Output)
	require.Equal(t, "a", r.Root().State())
	require.Equal(t, 1, r.PendingActions())

	turn = mustTurn(t, r)
	require.Equal(t, "outB", turn.Applied.Output)
	require.Equal(t, "b", r.Root().State())

	_, ok, err := r.TryTurn()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChildOutputBubblesThroughHandler(t *testing.T) {
	var childSink sinkHolder
	child := childSink.workflow("child")

	var r *Runner
	var childStateSeenByHandler any
	parent := &testWorkflow{
		identity: api.NewIdentity("parent"),
		initial:  func(any, *api.Snapshot) any { return 0 },
		render: func(ctx api.RenderContext, props, state any) any {
			ctx.RenderChild(child, 0, "", func(output any) api.Action {
				childStateSeenByHandler = r.Root().Children()[0].State()
				return act("child-done", func(_, state any) api.Update {
					return api.Update{
						State:     state.(int) + output.(int),
						Output:    fmt.Sprintf("parent saw %d", output),
						HasOutput: true,
					}
				})
			})
			return state
		},
	}

	r = newTestRunner(t, parent, nil, Options{})
	mustRender(t, r)
	childSink.sink.Send(setState("finish", 7, 7))

	turn := mustTurn(t, r)
	require.True(t, turn.Applied.StateChanged)
	require.True(t, turn.Applied.HasOutput)
	require.Equal(t, "parent saw 7", turn.Applied.Output)
	require.Equal(t, 7, childStateSeenByHandler, "child state committed before its parent sees the output")
	require.Equal(t, 7, r.Root().State())
}

func TestChildOutputWithoutHandlerOnlyMarksStateChange(t *testing.T) {
	var childSink sinkHolder
	child := childSink.workflow("child")
	parent := &testWorkflow{
		identity: api.NewIdentity("parent"),
		render: func(ctx api.RenderContext, props, state any) any {
			return ctx.RenderChild(child, 1, "", nil)
		},
	}

	r := newTestRunner(t, parent, nil, Options{})
	mustRender(t, r)
	childSink.sink.Send(setState("emit", 2, "ignored"))

	turn := mustTurn(t, r)
	require.True(t, turn.Applied.StateChanged)
	require.False(t, turn.Applied.HasOutput)
}

func TestArbitrationPrecedence(t *testing.T) {
	var parentSink, firstSink, secondSink sinkHolder
	first := firstSink.workflow("first")
	second := secondSink.workflow("second")

	var order []string
	record := func(name string) api.Action {
		return act(name, func(_, state any) api.Update {
			order = append(order, name)
			return api.Update{State: state}
		})
	}

	parent := &testWorkflow{
		identity: api.NewIdentity("parent"),
		render: func(ctx api.RenderContext, props, state any) any {
			parentSink.sink = ctx.Sink()
			ctx.RenderChild(first, nil, "", nil)
			ctx.RenderChild(second, nil, "", nil)
			return nil
		},
	}

	r := newTestRunner(t, parent, "p0", Options{})
	mustRender(t, r)

	// Enqueued in reverse of the order they are applied in.
	r.SetProps("p1")
	parentSink.sink.Send(record("parent"))
	secondSink.sink.Send(record("second"))
	firstSink.sink.Send(record("first"))

	var props []bool
	for i := 0; i < 4; i++ {
		props = append(props, mustTurn(t, r).PropsChanged)
	}
	require.Equal(t, []string{"first", "second", "parent"}, order)
	require.Equal(t, []bool{false, false, false, true}, props)
}

func TestSendAndWait(t *testing.T) {
	var h sinkHolder
	r := newTestRunner(t, h.workflow("waiter"), 0, Options{})
	mustRender(t, r)

	errc := make(chan error, 1)
	go func() {
		errc <- h.sink.SendAndWait(context.Background(), setState("set", 1))
	}()
	mustTurn(t, r)
	require.NoError(t, <-errc)
	require.Equal(t, 1, r.Root().State())
}

func TestSendAndWaitAbandonedActionIsSkipped(t *testing.T) {
	var h sinkHolder
	r := newTestRunner(t, h.workflow("waiter"), 0, Options{})
	mustRender(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.sink.SendAndWait(ctx, setState("never", 99))
	require.ErrorIs(t, err, context.Canceled)

	_, ok, err := r.TryTurn()
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, r.Root().State())
}

func TestSendAndWaitResolvedOnCancel(t *testing.T) {
	var h sinkHolder
	r := newTestRunner(t, h.workflow("waiter"), 0, Options{})
	mustRender(t, r)

	errc := make(chan error, 1)
	go func() {
		errc <- h.sink.SendAndWait(context.Background(), setState("set", 1))
	}()
	require.Eventually(t, func() bool { return r.PendingActions() == 1 }, 5*time.Second, time.Millisecond)

	r.Close()
	require.ErrorIs(t, <-errc, api.ErrNodeCancelled)
	require.ErrorIs(t, h.sink.SendAndWait(context.Background(), setState("late", 2)), api.ErrNodeCancelled)
}
