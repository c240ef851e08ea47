package engine

import (
	"fmt"

	"github.com/petrijr/flowtree/pkg/api"
)

// childNode is an active child plus the handler its parent declared for it
// on the latest pass.
type childNode struct {
	node    *Node
	handler api.OutputHandler
}

func (n *Node) renderChild(def api.Definition, props any, key string, handler api.OutputHandler) any {
	id := api.NodeID{Identity: def.Identity(), Key: key}
	sameID := func(c *childNode) bool { return c.node.id == id }

	if _, dup := n.children.findStaging(sameID); dup {
		panic(api.Usagef(api.ErrDuplicateChild,
			"%s declared more than once by %s in one pass; give each a unique key", id, n.id))
	}

	c, _ := n.children.retainOrCreate(sameID, func() *childNode {
		return &childNode{node: newNode(n.env, n, id, def, props, n.childSnapshot(id))}
	})
	c.handler = handler
	return c.node.render(def, props)
}

// childSnapshot returns the restored subtree for id. Snapshots are only
// offered to children created on the node's first pass.
func (n *Node) childSnapshot(id api.NodeID) *api.TreeSnapshot {
	if n.restored == nil {
		return nil
	}
	tree, err := n.restored.Child(id)
	if err != nil {
		panic(fmt.Errorf("restore %s: %w", id, err))
	}
	return tree
}

// applyChildResult bubbles the result of a turn taken by child c. The
// child's state is already committed; its output, if any, goes through the
// handler declared on the latest pass.
func (n *Node) applyChildResult(c *childNode, res api.ActionApplied) api.ActionApplied {
	defer n.annotatePanic()
	if res.StateChanged {
		n.subtreeDirty = true
	}
	if !res.HasOutput || c.handler == nil {
		return api.ActionApplied{StateChanged: res.StateChanged}
	}
	action := c.handler(res.Output)
	if action == nil {
		return api.ActionApplied{StateChanged: res.StateChanged}
	}
	applied := n.applyAction(action)
	applied.StateChanged = applied.StateChanged || res.StateChanged
	return applied
}
