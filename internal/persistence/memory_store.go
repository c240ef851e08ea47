package persistence

import (
	"context"
	"slices"
	"sync"
)

// InMemorySnapshotStore is a goroutine-safe SnapshotStore backed by a map.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewInMemorySnapshotStore creates an empty InMemorySnapshotStore.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snapshots: make(map[string][]byte)}
}

// Ensure InMemorySnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*InMemorySnapshotStore)(nil)

func (s *InMemorySnapshotStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[key] = slices.Clone(data)
	return nil
}

func (s *InMemorySnapshotStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.snapshots[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return slices.Clone(data), nil
}

func (s *InMemorySnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *InMemorySnapshotStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.snapshots))
	for k := range s.snapshots {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
