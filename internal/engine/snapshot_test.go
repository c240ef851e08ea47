package engine

import (
	"context"
	"strconv"
	"testing"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

// counter keeps an int state that survives snapshots as decimal text.
func counter(identity api.Identity) *testWorkflow {
	return &testWorkflow{
		identity: identity,
		initial: func(props any, snapshot *api.Snapshot) any {
			if snapshot != nil {
				b, err := snapshot.Bytes()
				if err != nil {
					panic(err)
				}
				n, err := strconv.Atoi(string(b))
				if err != nil {
					panic(err)
				}
				return n
			}
			return props
		},
		snapshot: func(state any) *api.Snapshot {
			return api.LazySnapshot(func() ([]byte, error) {
				return []byte(strconv.Itoa(state.(int))), nil
			})
		},
	}
}

func TestSnapshotRestoresTree(t *testing.T) {
	kept := counter(api.NewIdentity("kept"))
	volatile := counter(api.UnsnapshottableIdentity("volatile"))
	root := counter(api.NewIdentity("root"))
	root.render = func(ctx api.RenderContext, props, state any) any {
		return []any{
			state,
			ctx.RenderChild(kept, 10, "a", nil),
			ctx.RenderChild(volatile, 20, "", nil),
		}
	}

	// Drive child states away from their props-derived defaults.
	r := newTestRunner(t, root, 1, Options{})
	mustRender(t, r)
	children := r.Root().Children()
	children[0].state = 11
	children[1].state = 21
	r.Root().state = 2

	tree, err := r.Snapshot()
	require.NoError(t, err)
	encoded, err := tree.Encode()
	require.NoError(t, err)

	parsed, err := api.ParseTreeSnapshot(encoded)
	require.NoError(t, err)
	restored, err := NewRunner(context.Background(), root, 1, parsed, Options{Scheduler: scheduler.Immediate})
	require.NoError(t, err)
	defer restored.Close()

	rendering, err := restored.Render()
	require.NoError(t, err)
	require.Equal(t, []any{2, 11, 20}, rendering, "unsnapshottable child starts fresh")
}

func TestSnapshotOnlySeedsFirstPass(t *testing.T) {
	late := counter(api.NewIdentity("late"))
	root := counter(api.NewIdentity("root"))
	root.render = func(ctx api.RenderContext, props, state any) any {
		if props.(int) > 0 {
			return ctx.RenderChild(late, 0, "", nil)
		}
		return nil
	}

	source := renderedRunner(t, root, 1)
	source.Root().Children()[0].state = 99
	tree, err := source.Snapshot()
	require.NoError(t, err)

	// The restored root doesn't declare the child on its first pass, so
	// the child's saved state is gone when it shows up later.
	r, err := NewRunner(context.Background(), root, 0, tree, Options{Scheduler: scheduler.Immediate})
	require.NoError(t, err)
	defer r.Close()
	mustRender(t, r)
	r.SetProps(1)
	mustTurn(t, r)
	require.Equal(t, 0, mustRender(t, r))
}

func TestSnapshotSerializerErrorsAreDeferred(t *testing.T) {
	wf := &testWorkflow{
		identity: api.NewIdentity("bad"),
		snapshot: func(any) *api.Snapshot {
			return api.LazySnapshot(func() ([]byte, error) { return nil, strconv.ErrSyntax })
		},
	}
	r := newTestRunner(t, wf, nil, Options{})
	mustRender(t, r)

	tree, err := r.Snapshot()
	require.NoError(t, err)
	_, err = tree.Encode()
	require.ErrorIs(t, err, strconv.ErrSyntax)
	require.NoError(t, r.Err())
}

func TestMalformedChildSnapshotFailsRender(t *testing.T) {
	child := counter(api.NewIdentity("child"))
	root := counter(api.NewIdentity("root"))
	root.render = func(ctx api.RenderContext, props, state any) any {
		return ctx.RenderChild(child, 0, "", nil)
	}
	// Own block "1", then a child count that the remaining bytes can't hold.
	parsed, err := api.ParseTreeSnapshot([]byte{0, 0, 0, 1, '1', 0, 0, 0, 3})
	require.NoError(t, err)

	r, err := NewRunner(context.Background(), root, 0, parsed, Options{Scheduler: scheduler.Immediate})
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Render()
	require.ErrorIs(t, err, api.ErrInvalidSnapshot)
}

func renderedRunner(t *testing.T, def api.Definition, props any) *Runner {
	t.Helper()
	r := newTestRunner(t, def, props, Options{})
	mustRender(t, r)
	return r
}
