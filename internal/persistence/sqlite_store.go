package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteSnapshotStore is a SnapshotStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// Ensure SQLiteSnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*SQLiteSnapshotStore)(nil)

// NewSQLiteSnapshotStore initializes the required schema in the given
// database and returns a new SQLiteSnapshotStore.
func NewSQLiteSnapshotStore(db *sql.DB) (*SQLiteSnapshotStore, error) {
	s := &SQLiteSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSnapshotStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UnixNano(),
	)
	return err
}

func (s *SQLiteSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLiteSnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	return err
}
