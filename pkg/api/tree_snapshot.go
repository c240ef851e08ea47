package api

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// ChildSnapshot pairs a child node's id with its subtree snapshot.
type ChildSnapshot struct {
	ID   NodeID
	Tree *TreeSnapshot
}

// TreeSnapshot is the snapshot of a whole subtree: the node's own Snapshot
// plus one TreeSnapshot per child.
//
// The tree structure is fixed when the TreeSnapshot is created, but own
// snapshots stay lazy until Encode is called. A parsed TreeSnapshot decodes
// its children only when they are first requested.
//
// Binary layout (all lengths are big-endian uint32):
//
//	[len][own bytes]
//	[count]
//	count × ( [len][NodeID bytes] [len][child tree bytes] )
type TreeSnapshot struct {
	own *Snapshot

	once     sync.Once
	load     func() ([]ChildSnapshot, error)
	children []ChildSnapshot
	index    map[NodeID]*TreeSnapshot
	err      error
}

// NewTreeSnapshot returns a TreeSnapshot with the given own snapshot and
// children. Children are kept in the given order.
func NewTreeSnapshot(own *Snapshot, children []ChildSnapshot) *TreeSnapshot {
	return &TreeSnapshot{
		own:  own,
		load: func() ([]ChildSnapshot, error) { return children, nil },
	}
}

// RootOnlySnapshot returns a TreeSnapshot for a single node with no
// children.
func RootOnlySnapshot(own *Snapshot) *TreeSnapshot {
	return NewTreeSnapshot(own, nil)
}

// Own returns the node's own snapshot, or nil if it is absent or known to
// be empty.
func (t *TreeSnapshot) Own() *Snapshot {
	if t == nil || t.own.isKnownEmpty() {
		return nil
	}
	return t.own
}

// Children returns the child snapshots in their recorded order.
func (t *TreeSnapshot) Children() ([]ChildSnapshot, error) {
	if t == nil {
		return nil, nil
	}
	t.once.Do(func() {
		t.children, t.err = t.load()
		if t.err != nil {
			return
		}
		t.index = make(map[NodeID]*TreeSnapshot, len(t.children))
		for _, c := range t.children {
			t.index[c.ID] = c.Tree
		}
	})
	return t.children, t.err
}

// Child returns the snapshot recorded for id, or nil.
func (t *TreeSnapshot) Child(id NodeID) (*TreeSnapshot, error) {
	if _, err := t.Children(); err != nil || t == nil {
		return nil, err
	}
	return t.index[id], nil
}

// Validate parses every subtree of t, so that a malformed child section
// is reported now rather than when a restored node first asks for it.
func (t *TreeSnapshot) Validate() error {
	children, err := t.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := c.Tree.Validate(); err != nil {
			return fmt.Errorf("child %s: %w", c.ID, err)
		}
	}
	return nil
}

// Encode serializes the whole tree. Children whose identity chain is not
// snapshottable are left out, together with their descendants. Serializer
// errors from lazy snapshots are returned here.
func (t *TreeSnapshot) Encode() ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	own, err := t.own.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	children, err := t.Children()
	if err != nil {
		return nil, err
	}

	type encodedChild struct{ id, tree []byte }
	encoded := make([]encodedChild, 0, len(children))
	for _, c := range children {
		idBytes, ok := c.ID.MarshalBinary()
		if !ok {
			continue
		}
		treeBytes, err := c.Tree.Encode()
		if err != nil {
			return nil, fmt.Errorf("child %s: %w", c.ID, err)
		}
		encoded = append(encoded, encodedChild{idBytes, treeBytes})
	}

	buf := appendBlock(nil, own)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(encoded)))
	for _, c := range encoded {
		buf = appendBlock(buf, c.id)
		buf = appendBlock(buf, c.tree)
	}
	return buf, nil
}

// ParseTreeSnapshot reads a tree written by Encode. Empty input means
// "no prior state" and yields a nil tree. Only the root's own block is read
// eagerly; children are parsed when first requested.
func ParseTreeSnapshot(b []byte) (*TreeSnapshot, error) {
	if len(b) == 0 {
		return nil, nil
	}
	r := &reader{data: b}
	own, err := r.block()
	if err != nil {
		return nil, err
	}
	rest := r.data[r.off:]

	t := &TreeSnapshot{own: SnapshotOf(own)}
	t.load = func() ([]ChildSnapshot, error) { return parseChildren(rest) }
	return t, nil
}

func parseChildren(b []byte) ([]ChildSnapshot, error) {
	r := &reader{data: b}
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	// Every child takes at least two length prefixes.
	if int64(count)*8 > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: %d children don't fit in %d bytes", ErrInvalidSnapshot, count, r.remaining())
	}

	children := make([]ChildSnapshot, 0, count)
	for i := uint32(0); i < count; i++ {
		idBytes, err := r.block()
		if err != nil {
			return nil, err
		}
		id, err := ParseNodeID(idBytes)
		if err != nil {
			return nil, err
		}
		treeBytes, err := r.block()
		if err != nil {
			return nil, err
		}
		tree, err := ParseTreeSnapshot(treeBytes)
		if err != nil {
			return nil, fmt.Errorf("child %s: %w", id, err)
		}
		children = append(children, ChildSnapshot{ID: id, Tree: tree})
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidSnapshot, r.remaining())
	}
	return children, nil
}
