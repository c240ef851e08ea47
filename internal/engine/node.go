package engine

import (
	"context"
	"sync/atomic"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
)

// Phase is the lifecycle phase of a Node.
type Phase int32

const (
	PhaseCreated Phase = iota
	PhaseRendering
	PhaseIdle
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseRendering:
		return "rendering"
	case PhaseIdle:
		return "idle"
	case PhaseCancelled:
		return "cancelled"
	}
	return "unknown"
}

// env is shared by every node of one runtime.
type env struct {
	scheduler   scheduler.Scheduler
	config      api.RuntimeConfig
	interceptor api.Interceptor
	wake        chan struct{}
	fail        func(error)
	sessionIDs  atomic.Int64
}

func (e *env) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Node owns the state of one workflow instance in the tree. All fields
// except phase and the action queue are only touched by the goroutine
// running the arbitration loop.
type Node struct {
	env     *env
	id      api.NodeID
	session *api.Session
	def     api.Definition

	ctx    context.Context
	cancel context.CancelCauseFunc

	props         any
	state         any
	lastRendering any
	rendered      bool

	children   activeStagingList[*childNode]
	tasks      activeStagingList[*taskNode]
	remembered activeStagingList[*rememberedNode]

	// restored is the snapshot this node was created from. It is dropped
	// after the first pass.
	restored *api.TreeSnapshot

	queue *actionQueue

	selfDirty    bool
	subtreeDirty bool
	phase        atomic.Int32
}

func newNode(e *env, parent *Node, id api.NodeID, def api.Definition, props any, snapshot *api.TreeSnapshot) *Node {
	parentCtx := context.Background()
	var parentSession *api.Session
	if parent != nil {
		parentCtx = parent.ctx
		parentSession = parent.session
	}
	return newNodeWithContext(e, parentCtx, parentSession, id, def, props, snapshot)
}

func newNodeWithContext(e *env, parentCtx context.Context, parentSession *api.Session, id api.NodeID, def api.Definition, props any, snapshot *api.TreeSnapshot) *Node {
	ctx, cancel := context.WithCancelCause(parentCtx)
	n := &Node{
		env:      e,
		id:       id,
		def:      def,
		ctx:      ctx,
		cancel:   cancel,
		props:    props,
		restored: snapshot,
		queue:    newActionQueue(e.signal),
		session: &api.Session{
			ID:       e.sessionIDs.Add(1),
			Identity: id.Identity,
			Key:      id.Key,
			Parent:   parentSession,
		},
	}
	e.interceptor.OnSessionStarted(ctx, n.session)
	n.state = e.interceptor.OnInitialState(props, snapshot.Own(), def.InitialState, n.session)
	return n
}

func (n *Node) ID() api.NodeID { return n.id }
func (n *Node) Session() *api.Session { return n.session }
func (n *Node) State() any { return n.state }
func (n *Node) Props() any { return n.props }
func (n *Node) Phase() Phase { return Phase(n.phase.Load()) }
func (n *Node) Context() context.Context { return n.ctx }

// Children returns the active children in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children.active))
	for _, c := range n.children.active {
		out = append(out, c.node)
	}
	return out
}

// RunningTasks returns the keys of the active tasks in declaration order.
func (n *Node) RunningTasks() []string {
	out := make([]string, 0, len(n.tasks.active))
	for _, t := range n.tasks.active {
		out = append(out, t.key)
	}
	return out
}

// render runs one pass. The render body runs at most once; with partial
// tree rendering a clean node returns its previous rendering.
func (n *Node) render(def api.Definition, props any) any {
	defer n.annotatePanic()
	n.def = def
	if n.rendered && !equal(props, n.props) {
		old := n.props
		n.state = n.env.interceptor.OnPropsChanged(old, props, n.state, def.PropsChanged, n.session)
		n.props = props
		n.selfDirty = true
	} else {
		n.props = props
	}

	if n.env.config.PartialTreeRendering && n.rendered && !n.selfDirty && !n.subtreeDirty {
		return n.lastRendering
	}

	n.phase.Store(int32(PhaseRendering))
	ctx := newRenderContext(n)
	rendering := n.env.interceptor.OnRender(n.props, n.state, func(props, state any) any {
		return def.Render(ctx, props, state)
	}, n.session)
	ctx.freeze()

	cause := api.ErrNodeCancelled
	n.children.commit(func(c *childNode) { c.node.Cancel(cause) })
	n.tasks.commit(func(t *taskNode) { n.cancelTask(t, cause) })
	n.remembered.commit(nil)
	n.startTasks()

	n.restored = nil
	n.lastRendering = rendering
	n.rendered = true
	n.selfDirty = false
	n.subtreeDirty = false
	n.phase.CompareAndSwap(int32(PhaseRendering), int32(PhaseIdle))
	return rendering
}

// applyAction runs a against the node's props and state.
func (n *Node) applyAction(a api.Action) api.ActionApplied {
	defer n.annotatePanic()
	update := a.Apply(n.props, n.state)
	changed := !equal(update.State, n.state)
	n.state = update.State
	if changed {
		n.selfDirty = true
	}
	applied := api.ActionApplied{
		Output:       update.Output,
		HasOutput:    update.HasOutput,
		StateChanged: changed,
	}
	n.env.interceptor.OnActionApplied(n.session, a.Name(), applied)
	return applied
}

// Snapshot captures the subtree. Own snapshots stay lazy.
func (n *Node) Snapshot() *api.TreeSnapshot {
	defer n.annotatePanic()
	own := n.env.interceptor.OnSnapshotState(n.state, n.def.SnapshotState, n.session)
	children := make([]api.ChildSnapshot, 0, len(n.children.active))
	for _, c := range n.children.active {
		children = append(children, api.ChildSnapshot{ID: c.node.id, Tree: c.node.Snapshot()})
	}
	return api.NewTreeSnapshot(own, children)
}

// Cancel tears the subtree down: children depth-first, then tasks, then
// the node's own context. Waiters on queued actions get ErrNodeCancelled.
// Safe to call more than once.
func (n *Node) Cancel(cause error) {
	if Phase(n.phase.Swap(int32(PhaseCancelled))) == PhaseCancelled {
		return
	}
	for _, c := range n.children.all() {
		c.node.Cancel(cause)
	}
	for _, t := range n.tasks.all() {
		n.cancelTask(t, cause)
	}
	n.cancel(cause)
	n.queue.close(api.ErrNodeCancelled)
	n.env.interceptor.OnSessionCancelled(n.session, cause)
}
