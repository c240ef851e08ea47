package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresSnapshotStore is a SnapshotStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// Ensure PostgresSnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*PostgresSnapshotStore)(nil)

// NewPostgresSnapshotStore initializes the required schema in the given
// database and returns a new PostgresSnapshotStore.
func NewPostgresSnapshotStore(db *sql.DB) (*PostgresSnapshotStore, error) {
	s := &PostgresSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresSnapshotStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flowtree_snapshots (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flowtree_snapshots (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, key, data)
	return err
}

func (s *PostgresSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM flowtree_snapshots WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *PostgresSnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM flowtree_snapshots WHERE key = $1`, key)
	return err
}
