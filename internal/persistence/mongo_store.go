package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSnapshotStore is a SnapshotStore backed by a MongoDB collection.
// Documents are keyed by the snapshot key.
type MongoSnapshotStore struct {
	coll *mongo.Collection
}

var _ SnapshotStore = (*MongoSnapshotStore)(nil)

type mongoSnapshotDoc struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoSnapshotStore returns a store writing to coll.
func NewMongoSnapshotStore(coll *mongo.Collection) *MongoSnapshotStore {
	return &MongoSnapshotStore{coll: coll}
}

func (s *MongoSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	doc := mongoSnapshotDoc{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var doc mongoSnapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

func (s *MongoSnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
