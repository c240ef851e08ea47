package engine

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
)

const (
	building int32 = iota
	frozen
)

// renderContext is created fresh for every render pass. While the render
// body runs it accepts declarations and rejects sends; once the body
// returns it is frozen and the reverse holds.
type renderContext struct {
	node  *Node
	phase atomic.Int32
}

var _ api.RenderContext = (*renderContext)(nil)

func newRenderContext(n *Node) *renderContext {
	return &renderContext{node: n}
}

func (c *renderContext) freeze() { c.phase.Store(frozen) }

func (c *renderContext) checkBuilding(what string) {
	if c.phase.Load() != building {
		panic(api.Usagef(api.ErrContextFrozen, "%s called on %s after its render pass returned", what, c.node.id))
	}
}

func (c *renderContext) Sink() api.Sink { return c }

func (c *renderContext) Send(a api.Action) {
	c.checkFrozen(a)
	c.node.queue.send(a)
}

func (c *renderContext) SendAndWait(ctx context.Context, a api.Action) error {
	c.checkFrozen(a)
	scheduler.Detach(ctx)
	return c.node.queue.sendAndWait(ctx, a)
}

func (c *renderContext) checkFrozen(a api.Action) {
	if c.phase.Load() == building {
		panic(api.Usagef(api.ErrSendDuringRender,
			"action %q sent while %s was rendering; send from a task or an output handler instead",
			a.Name(), c.node.id))
	}
}

func (c *renderContext) RenderChild(child api.Definition, props any, key string, handler api.OutputHandler) any {
	c.checkBuilding("RenderChild")
	return c.node.renderChild(child, props, key, handler)
}

func (c *renderContext) RunningTask(key string, task api.Task) {
	c.checkBuilding("RunningTask")
	c.node.declareTask(key, task)
}

func (c *renderContext) Remember(key string, resultType reflect.Type, inputs []any, calc func() any) any {
	c.checkBuilding("Remember")
	return c.node.remember(key, resultType, inputs, calc)
}
