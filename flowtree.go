package flowtree

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/flowtree/internal/persistence"
	"github.com/petrijr/flowtree/pkg/api"
	"github.com/petrijr/flowtree/pkg/scheduler"
	"github.com/petrijr/flowtree/pkg/worker"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Identity             = api.Identity
	NodeID               = api.NodeID
	Snapshot             = api.Snapshot
	TreeSnapshot         = api.TreeSnapshot
	RuntimeConfig        = api.RuntimeConfig
	Session              = api.Session
	Interceptor          = api.Interceptor
	NoopInterceptor      = api.NoopInterceptor
	LoggingInterceptor   = api.LoggingInterceptor
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	EventRecorder        = api.EventRecorder
	NodeEvent            = api.NodeEvent
	UsageError           = api.UsageError
	RuntimeError         = api.RuntimeError
	PanicError           = api.PanicError
	Scheduler            = scheduler.Scheduler
	RetryPolicy          = worker.RetryPolicy

	// SnapshotStore parks encoded tree snapshots; see Options.Store.
	SnapshotStore = persistence.SnapshotStore
)

// Re-export common helpers.

var (
	NewLoggingInterceptor = api.NewLoggingInterceptor
	NewEventRecorder      = api.NewEventRecorder
	ChainInterceptors     = api.ChainInterceptors
	SnapshotOf            = api.SnapshotOf
	LazySnapshot          = api.LazySnapshot
	ParseTreeSnapshot     = api.ParseTreeSnapshot
	DefaultConfig         = api.DefaultConfig
	LoadRuntimeConfig     = api.LoadRuntimeConfig
	Retry                 = worker.Retry
)

// Re-export sentinel errors.

var (
	ErrDuplicateChild        = api.ErrDuplicateChild
	ErrDuplicateTask         = api.ErrDuplicateTask
	ErrDuplicateRemember     = api.ErrDuplicateRemember
	ErrRememberShapeMismatch = api.ErrRememberShapeMismatch
	ErrSendDuringRender      = api.ErrSendDuringRender
	ErrContextFrozen         = api.ErrContextFrozen
	ErrNodeCancelled         = api.ErrNodeCancelled
	ErrRuntimeCancelled      = api.ErrRuntimeCancelled
	ErrInvalidSnapshot       = api.ErrInvalidSnapshot
	ErrSnapshotNotFound      = persistence.ErrSnapshotNotFound
)

// GobSnapshot returns a lazy snapshot of v encoded with encoding/gob.
func GobSnapshot[T any](v T) *Snapshot { return api.GobSnapshot(v) }

// RestoreGob decodes a snapshot written by GobSnapshot. A nil snapshot
// yields T's zero value.
func RestoreGob[T any](s *Snapshot) (T, error) {
	data, err := s.Bytes()
	if err != nil {
		var zero T
		return zero, err
	}
	return api.DecodeValue[T](data)
}

// Snapshot store constructors.
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// NewInMemorySnapshotStore returns a process-local SnapshotStore.
func NewInMemorySnapshotStore() SnapshotStore {
	return persistence.NewInMemorySnapshotStore()
}

// NewSQLiteSnapshotStore stores snapshots in a SQLite database. The caller
// imports the driver, e.g. modernc.org/sqlite.
func NewSQLiteSnapshotStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewSQLiteSnapshotStore(db)
}

// NewPostgresSnapshotStore stores snapshots in PostgreSQL. The caller
// imports the driver, e.g. github.com/jackc/pgx/v5/stdlib.
func NewPostgresSnapshotStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewPostgresSnapshotStore(db)
}

// NewRedisSnapshotStore stores snapshots as Redis strings under prefix.
func NewRedisSnapshotStore(client *redis.Client, prefix string) SnapshotStore {
	return persistence.NewRedisSnapshotStore(client, prefix)
}

// NewMongoSnapshotStore stores one document per snapshot key in coll.
func NewMongoSnapshotStore(coll *mongo.Collection) SnapshotStore {
	return persistence.NewMongoSnapshotStore(coll)
}

// NewBoltSnapshotStore stores snapshots in a bbolt database file.
func NewBoltSnapshotStore(db *bolt.DB) (SnapshotStore, error) {
	return persistence.NewBoltSnapshotStore(db)
}
