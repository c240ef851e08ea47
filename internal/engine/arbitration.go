package engine

import "github.com/petrijr/flowtree/pkg/api"

// tryApplyNext takes at most one turn for the subtree rooted at n. Sources
// are tried in a fixed order: active children in declaration order (each
// recursively), then n's own queued actions. It reports false when nothing
// was ready.
func (n *Node) tryApplyNext() (api.ActionApplied, bool) {
	for _, c := range n.children.active {
		if res, ok := c.node.tryApplyNext(); ok {
			return n.applyChildResult(c, res), true
		}
	}
	p, ok := n.queue.pop()
	if !ok {
		return api.ActionApplied{}, false
	}
	return n.applyQueued(p), true
}

func (n *Node) applyQueued(p *pendingAction) api.ActionApplied {
	resolved := false
	defer func() {
		if !resolved {
			p.resolve(api.ErrNodeCancelled)
		}
	}()
	applied := n.applyAction(p.action)
	resolved = true
	p.resolve(nil)
	return applied
}

// pendingActions counts queued actions in the subtree.
func (n *Node) pendingActions() int {
	total := n.queue.len()
	for _, c := range n.children.active {
		total += c.node.pendingActions()
	}
	return total
}
