package persistence

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by Load when no snapshot is stored under
// a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore parks encoded tree snapshots under a caller-chosen key.
// Stores treat the bytes as opaque.
type SnapshotStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
