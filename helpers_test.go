package flowtree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// counterScreen is the rendering of the counter workflow.
type counterScreen struct {
	Count int
	Inc   func()
	Emit  func(string)
}

type counterWorkflow = Stateful[int, int, string, counterScreen]

func increment() Action[int, int, string] {
	return NewAction("increment", func(u *Updater[int, int, string]) { u.State++ })
}

// newCounter starts at its props and counts up whenever Inc is called.
// Emit sends its argument to the parent as an output.
func newCounter(kind string) *counterWorkflow {
	return &counterWorkflow{
		Kind:         kind,
		InitialState: func(start int, snapshot *Snapshot) int {
			if snapshot != nil {
				n, err := RestoreGob[int](snapshot)
				if err == nil {
					return n
				}
			}
			return start
		},
		Render: func(ctx *RenderContext[int, int, string], _ int, n int) counterScreen {
			sink := ctx.Sink()
			return counterScreen{
				Count: n,
				Inc:   func() { sink.Send(increment()) },
				Emit: func(msg string) {
					sink.Send(NewAction("emit", func(u *Updater[int, int, string]) { u.SetOutput(msg) }))
				},
			}
		},
		SnapshotState: func(n int) *Snapshot { return GobSnapshot(n) },
	}
}

func startLocal[P, O, R any](t *testing.T, w Workflow[P, O, R], props P, opts Options) *LocalRunner[P, O, R] {
	t.Helper()
	r, err := NewLocalRunner(context.Background(), w, props, opts)
	require.NoError(t, err)
	t.Cleanup(r.Stop)
	return r
}

func awaitRendering[P, O, R any](t *testing.T, r *LocalRunner[P, O, R], match func(R) bool) R {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	rendering, err := r.AwaitRendering(ctx, match)
	require.NoError(t, err)
	return rendering
}

func awaitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("runtime did not stop")
	}
}
