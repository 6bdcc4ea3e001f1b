// Package file persists the database as a single JSON or YAML document.
package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mpezzi/json-server/internal/db"
)

// Compile-time check: Store implements db.Persister.
var _ db.Persister = (*Store)(nil)

// Format is the on-disk document encoding.
type Format uint8

const (
	// JSON documents (default).
	JSON Format = iota
	// YAML documents (.yaml / .yml).
	YAML
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Store reads and writes a database document at a path.
type Store struct {
	path   string
	format Format

	mu       sync.Mutex
	lastHash string
}

// NewStore creates a file store. The format follows the extension.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &Store{path: path, format: FormatOf(path)}, nil
}

// Path returns the document path.
func (s *Store) Path() string { return s.path }

// Load reads the document. A missing file yields an empty snapshot.
func (s *Store) Load(_ context.Context) (db.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, hash, err := s.read()
	if err != nil {
		return db.Snapshot{}, err
	}
	s.lastHash = hash
	return snap, nil
}

// Save writes the document atomically: a temp file in the same directory
// is renamed over the target.
func (s *Store) Save(_ context.Context, snap db.Snapshot) error {
	data, err := Encode(snap, s.format)
	if err != nil {
		return &db.Error{Op: db.OpEncode, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return &db.Error{Op: db.OpSave, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &db.Error{Op: db.OpSave, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &db.Error{Op: db.OpSave, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &db.Error{Op: db.OpSave, Err: err}
	}
	s.lastHash = hashOf(data)
	return nil
}

// Changed re-reads the document and returns it when its content differs
// from what this store last loaded or saved.
func (s *Store) Changed(_ context.Context) (db.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, hash, err := s.read()
	if err != nil {
		return db.Snapshot{}, false, err
	}
	if hash == s.lastHash {
		return db.Snapshot{}, false, nil
	}
	s.lastHash = hash
	return snap, true, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) read() (db.Snapshot, string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		snap, _ := db.ParseSnapshot(nil)
		return snap, "", nil
	}
	if err != nil {
		return db.Snapshot{}, "", &db.Error{Op: db.OpLoad, Err: err}
	}
	snap, err := Decode(data, s.format)
	if err != nil {
		return db.Snapshot{}, "", &db.Error{Op: db.OpDecode, Err: err}
	}
	return snap, hashOf(data), nil
}

// Decode parses a document in the given format.
func Decode(data []byte, format Format) (db.Snapshot, error) {
	if format == YAML {
		return decodeYAML(data)
	}
	return db.ParseSnapshot(data)
}

// Encode renders a snapshot in the given format. JSON output is indented
// with two spaces.
func Encode(snap db.Snapshot, format Format) ([]byte, error) {
	if format == YAML {
		return encodeYAML(snap)
	}
	raw, err := snap.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
