package api

import "sync"

// Snapshot is the serialized state of a single node.
//
// Encoding is deferred: a Snapshot built with LazySnapshot does not run its
// serializer until Bytes is first called, and any serializer error is
// reported from Bytes, never at capture time. A nil *Snapshot means "no
// snapshot".
type Snapshot struct {
	once  sync.Once
	fn    func() ([]byte, error)
	bytes []byte
	err   error
	eager bool
}

// SnapshotOf returns a Snapshot holding b.
func SnapshotOf(b []byte) *Snapshot {
	return &Snapshot{bytes: b, eager: true}
}

// LazySnapshot returns a Snapshot that calls fn the first time its bytes
// are needed.
func LazySnapshot(fn func() ([]byte, error)) *Snapshot {
	return &Snapshot{fn: fn}
}

// Bytes returns the encoded snapshot, running the serializer if needed.
// The result is cached.
func (s *Snapshot) Bytes() ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	if s.eager {
		return s.bytes, nil
	}
	s.once.Do(func() {
		s.bytes, s.err = s.fn()
	})
	return s.bytes, s.err
}

// isKnownEmpty reports whether s is an eager snapshot with no bytes.
// Lazy snapshots are never forced to find out.
func (s *Snapshot) isKnownEmpty() bool {
	return s == nil || (s.eager && len(s.bytes) == 0)
}
