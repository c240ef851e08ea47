// Package flowtree is an embeddable runtime for trees of stateful
// workflows.
//
// A workflow is a state machine that renders: given its props and its
// state it returns a rendering, and while doing so it declares the
// children, tasks and workers it needs. The runtime keeps everything that
// is declared running, tears down whatever stops being declared and feeds
// the results back in as actions, one at a time.
//
// # Core Concepts
//
//  1. Workflow
//  2. RenderContext
//  3. Action and Sink
//  4. Runtime
//  5. Snapshots and stores
//
// # Workflow
//
// Stateful, Stateless and the fluent Builder (New) define workflows.
// MapRendering wraps a workflow and transforms its rendering. A workflow's
// Kind is its identity: a child declared with the same kind and key on
// consecutive passes is the same node and keeps its state.
//
// # RenderContext
//
// A render body receives a fresh RenderContext on every pass. Declarations
// (RenderChild, RunningTask, RunningWorker, Remember) are only valid while
// the body runs:
//
//	func render(ctx *flowtree.RenderContext[Props, State, Out], p Props, s State) Screen {
//	    login := flowtree.RenderChild(ctx, loginFlow, p.User, "", onLogin)
//	    flowtree.RunningWorker(ctx, "tick", worker.Ticker(time.Second), onTick)
//	    return Screen{Login: login}
//	}
//
// Sending an action while the body runs panics with ErrSendDuringRender;
// capture ctx.Sink() in handlers or tasks instead.
//
// # Action and Sink
//
// An Action updates the state of exactly one node and may emit an output
// to its parent. Actions from children are applied before the node's own,
// which are applied before new props; each turn applies one action and is
// followed by a render pass.
//
// # Runtime
//
// RenderWorkflow starts a tree, renders it once synchronously and then
// publishes a RenderingAndSnapshot after every turn. A panic in a render
// body or a task, or a task error, stops the runtime; Err reports why.
// LocalRunner bundles a Runtime with its props channel and an output log.
//
// # Snapshots and stores
//
// Every published value carries a TreeSnapshot whose own snapshots are
// encoded lazily. Options.Store persists the encoded tree in memory,
// SQLite, PostgreSQL, Redis, MongoDB or bbolt, and restores it on start.
//
// For examples, see the /examples directory.
package flowtree
