package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotStore is a SnapshotStore backed by Redis. Each snapshot is a
// plain string value under <prefix>snap:<key>.
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string

	// TTL expires saved snapshots. Zero keeps them forever.
	TTL time.Duration
}

var _ SnapshotStore = (*RedisSnapshotStore)(nil)

// NewRedisSnapshotStore creates a RedisSnapshotStore.
// prefix is optional but recommended (e.g. "flowtree:").
func NewRedisSnapshotStore(client *redis.Client, prefix string) *RedisSnapshotStore {
	if prefix == "" {
		prefix = "flowtree:"
	}
	return &RedisSnapshotStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisSnapshotStore) keySnapshot(key string) string {
	return s.prefix + "snap:" + key
}

func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, s.keySnapshot(key), data, s.TTL).Err()
}

func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keySnapshot(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keySnapshot(key)).Err()
}
