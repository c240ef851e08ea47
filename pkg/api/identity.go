package api

import (
	"fmt"
	"strings"
)

const (
	chainSep = "\x00"

	noProxyTag = 0
	proxyTag   = 1
)

// Identity identifies a kind of workflow for reconciliation between render
// passes and for matching snapshots on restore.
//
// An Identity is a plain comparable value: two identities are equal iff
// they have the same kind and the same chain of proxied identities. An
// impostor (proxy) identity carries the full identity it delegates to, so
// two wrappers of the same kind around different real workflows are
// distinct.
//
// The zero Identity is invalid.
type Identity struct {
	// chain holds the kinds from outermost wrapper to the real kind.
	chain           string
	unsnapshottable bool
}

// NewIdentity returns the identity of a workflow kind. Kind names must be
// non-empty and must not contain NUL bytes.
func NewIdentity(kind string) Identity {
	mustValidKind(kind)
	return Identity{chain: kind}
}

// ImpostorIdentity returns the identity of a workflow of the given kind that
// stands in for real. Whether it can be snapshotted is inherited from real.
func ImpostorIdentity(kind string, real Identity) Identity {
	mustValidKind(kind)
	if real.IsZero() {
		panic("flowtree: impostor identity requires a real identity")
	}
	return Identity{
		chain:           kind + chainSep + real.chain,
		unsnapshottable: real.unsnapshottable,
	}
}

// UnsnapshottableIdentity returns an identity that is never written into a
// snapshot. Nodes with this identity, and everything beneath them, start
// fresh after a restore.
func UnsnapshottableIdentity(kind string) Identity {
	mustValidKind(kind)
	return Identity{chain: kind, unsnapshottable: true}
}

func mustValidKind(kind string) {
	if kind == "" {
		panic("flowtree: identity kind must not be empty")
	}
	if strings.Contains(kind, chainSep) {
		panic(fmt.Sprintf("flowtree: identity kind %q contains a NUL byte", kind))
	}
}

// IsZero reports whether i is the zero Identity.
func (i Identity) IsZero() bool { return i.chain == "" }

// Kind returns the outermost kind.
func (i Identity) Kind() string {
	kind, _, _ := strings.Cut(i.chain, chainSep)
	return kind
}

// RealKind returns the kind at the end of the proxy chain. For identities
// that are not impostors it equals Kind.
func (i Identity) RealKind() string {
	if idx := strings.LastIndex(i.chain, chainSep); idx >= 0 {
		return i.chain[idx+len(chainSep):]
	}
	return i.chain
}

// Proxied returns the identity i stands in for, if i is an impostor.
func (i Identity) Proxied() (Identity, bool) {
	_, rest, ok := strings.Cut(i.chain, chainSep)
	if !ok {
		return Identity{}, false
	}
	return Identity{chain: rest, unsnapshottable: i.unsnapshottable}, true
}

// Snapshottable reports whether i, and every identity it proxies, can be
// written into a snapshot.
func (i Identity) Snapshottable() bool { return !i.IsZero() && !i.unsnapshottable }

func (i Identity) String() string {
	return "Identity(" + strings.ReplaceAll(i.chain, chainSep, ", ") + ")"
}

// MarshalBinary returns the serialized identity, or ok=false when the
// identity is not snapshottable.
func (i Identity) MarshalBinary() (b []byte, ok bool) {
	if !i.Snapshottable() {
		return nil, false
	}
	kinds := strings.Split(i.chain, chainSep)
	for n, kind := range kinds {
		b = appendBlock(b, []byte(kind))
		if n == len(kinds)-1 {
			b = append(b, noProxyTag)
		} else {
			b = append(b, proxyTag)
		}
	}
	return b, true
}

// ParseIdentity reads an identity written by MarshalBinary.
func ParseIdentity(b []byte) (Identity, error) {
	r := &reader{data: b}
	var kinds []string
	for {
		kind, err := r.block()
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
		}
		if len(kind) == 0 || strings.Contains(string(kind), chainSep) {
			return Identity{}, fmt.Errorf("%w: bad kind %q", ErrInvalidIdentity, kind)
		}
		kinds = append(kinds, string(kind))

		tag, err := r.byte()
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
		}
		switch tag {
		case noProxyTag:
			if r.remaining() != 0 {
				return Identity{}, fmt.Errorf("%w: %d trailing bytes", ErrInvalidIdentity, r.remaining())
			}
			return Identity{chain: strings.Join(kinds, chainSep)}, nil
		case proxyTag:
		default:
			return Identity{}, fmt.Errorf("%w: unknown tag %d", ErrInvalidIdentity, tag)
		}
	}
}

// NodeID identifies one node among its siblings: the workflow identity plus
// the key it was rendered with.
type NodeID struct {
	Identity Identity
	Key      string
}

func (id NodeID) String() string {
	if id.Key == "" {
		return id.Identity.String()
	}
	return fmt.Sprintf("%s[key=%q]", id.Identity, id.Key)
}

// MarshalBinary returns the serialized node id, or ok=false when its
// identity is not snapshottable.
func (id NodeID) MarshalBinary() ([]byte, bool) {
	identity, ok := id.Identity.MarshalBinary()
	if !ok {
		return nil, false
	}
	b := appendBlock(nil, identity)
	b = appendBlock(b, []byte(id.Key))
	return b, true
}

// ParseNodeID reads a node id written by NodeID.MarshalBinary.
func ParseNodeID(b []byte) (NodeID, error) {
	r := &reader{data: b}
	identityBytes, err := r.block()
	if err != nil {
		return NodeID{}, err
	}
	identity, err := ParseIdentity(identityBytes)
	if err != nil {
		return NodeID{}, err
	}
	key, err := r.block()
	if err != nil {
		return NodeID{}, err
	}
	if r.remaining() != 0 {
		return NodeID{}, fmt.Errorf("%w: %d trailing bytes after node id", ErrInvalidSnapshot, r.remaining())
	}
	return NodeID{Identity: identity, Key: string(key)}, nil
}
