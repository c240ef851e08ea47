package persistence

import (
	"bytes"
	"context"

	bolt "go.etcd.io/bbolt"
)

const bucketSnapshots = "snapshots"

// BoltSnapshotStore is a SnapshotStore backed by a bbolt database file.
type BoltSnapshotStore struct {
	db *bolt.DB
}

var _ SnapshotStore = (*BoltSnapshotStore)(nil)

// NewBoltSnapshotStore creates the snapshot bucket in db if needed.
func NewBoltSnapshotStore(db *bolt.DB) (*BoltSnapshotStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BoltSnapshotStore{db: db}, nil
}

func (s *BoltSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		if data == nil {
			data = []byte{}
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		v := b.Get([]byte(key))
		if v == nil {
			return ErrSnapshotNotFound
		}
		// v is only valid for the life of the transaction.
		data = bytes.Clone(v)
		return nil
	})
	return data, err
}

func (s *BoltSnapshotStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Delete([]byte(key))
	})
}
