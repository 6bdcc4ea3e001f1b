// Package sqlite persists the database in a SQLite file, one row per
// resource collection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Compile-time check: Store implements db.Persister.
var _ db.Persister = (*Store)(nil)

// Store keeps each collection as a JSON array in
//
//	collections(name, position, data)  PRIMARY KEY (name)
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// NewStore opens (and creates if needed) the SQLite file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpExec, Err: err}
	}
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		data TEXT NOT NULL
	)`); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpExec, Err: err}
	}
	return &Store{db: conn}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Load reads every collection in stored order.
func (s *Store) Load(ctx context.Context) (db.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name, data FROM collections ORDER BY position")
	if err != nil {
		return db.Snapshot{}, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	doc := value.NewObject()
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return db.Snapshot{}, &db.Error{Op: db.OpQuery, Err: err}
		}
		v, err := value.Parse([]byte(raw))
		if err != nil {
			return db.Snapshot{}, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("%w: %s: %w", db.ErrMalformed, name, err)}
		}
		doc.Set(name, v)
	}
	if err := rows.Err(); err != nil {
		return db.Snapshot{}, &db.Error{Op: db.OpQuery, Err: err}
	}

	snap, err := db.SnapshotFromValue(value.ObjectOf(doc))
	if err != nil {
		return db.Snapshot{}, &db.Error{Op: db.OpDecode, Err: err}
	}
	return snap, nil
}

// Save replaces the stored collections with snap in one transaction.
func (s *Store) Save(ctx context.Context, snap db.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM collections"); err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i, name := range snap.Names {
		data, err := encodeCollection(snap.Collection(name))
		if err != nil {
			return &db.Error{Op: db.OpEncode, Err: err}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collections (name, position, data) VALUES (?, ?, ?)",
			name, i, string(data),
		); err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpSave, Err: err}
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeCollection(rs []record.Record) ([]byte, error) {
	items := make([]value.Value, len(rs))
	for i, r := range rs {
		items[i] = r.Value()
	}
	return value.Array(items...).MarshalJSON()
}
