// Package db holds the in-memory Database: every resource collection, keyed
// by name, in insertion order. Callers only ever see deep copies.
package db

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Mode selects how Update applies a body.
type Mode uint8

const (
	// ModeReplace swaps every field but the identifier (PUT).
	ModeReplace Mode = iota
	// ModeMerge shallow-merges the body onto the record (PATCH).
	ModeMerge
)

// Option configures a Database.
type Option func(*Database)

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(d *Database) { d.newID = fn }
}

// Database is the shared record store. Safe for concurrent use.
type Database struct {
	mu    sync.RWMutex
	idKey string
	names []string
	colls map[string][]record.Record
	newID func() string
}

// New creates an empty database using idKey as identifier field.
func New(idKey string, opts ...Option) *Database {
	if idKey == "" {
		idKey = record.DefaultIDKey
	}
	d := &Database{
		idKey: idKey,
		colls: make(map[string][]record.Record),
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// IDKey returns the identifier field name.
func (d *Database) IDKey() string { return d.idKey }

// Names returns resource names in first-seen order.
func (d *Database) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.names)
}

// Len returns the number of records in a collection.
func (d *Database) Len(name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.colls[name])
}

// List returns a copy of a collection. Unknown names yield an empty slice.
func (d *Database) List(name string) []record.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneAll(d.colls[name])
}

// Has reports whether a collection exists, even an empty one.
func (d *Database) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.colls[name]
	return ok
}

// Get returns the record whose identifier renders as id.
func (d *Database) Get(name, id string) (record.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.indexOf(name, id)
	if i < 0 {
		return record.Record{}, ErrNotFound
	}
	return d.colls[name][i].Clone(), nil
}

// Insert appends body to a collection, creating it if needed. The body's
// identifier is kept unless it is missing, null or already taken, in which
// case a fresh one is generated. The identifier is always the first field.
func (d *Database) Insert(name string, body *value.Object) record.Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	src := record.FromObject(body)
	id, ok := src.ID(d.idKey)
	if !ok || d.indexOf(name, id.Canonical()) >= 0 {
		id = d.uniqueID(name)
	}

	out := record.New()
	out.Set(d.idKey, id.Clone())
	body.Range(func(k string, v value.Value) bool {
		if k != d.idKey {
			out.Set(k, v.Clone())
		}
		return true
	})

	d.ensure(name)
	d.colls[name] = append(d.colls[name], out)
	return out.Clone()
}

// Update applies body to the record identified by id, in place.
func (d *Database) Update(name, id string, body *value.Object, mode Mode) (record.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(name, id)
	if i < 0 {
		return record.Record{}, ErrNotFound
	}
	cur := d.colls[name][i]
	var next record.Record
	switch mode {
	case ModeMerge:
		next = cur.Merged(d.idKey, body)
	default:
		next = cur.Replaced(d.idKey, body)
	}
	d.colls[name][i] = next
	return next.Clone(), nil
}

// Remove deletes the record identified by id and reports whether it existed.
func (d *Database) Remove(name, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(name, id)
	if i < 0 {
		return false
	}
	d.colls[name] = slices.Delete(d.colls[name], i, i+1)
	return true
}

// Snapshot returns a deep copy of the whole database.
func (d *Database) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Snapshot{
		Names:       slices.Clone(d.names),
		Collections: make(map[string][]record.Record, len(d.colls)),
	}
	for name, coll := range d.colls {
		s.Collections[name] = cloneAll(coll)
	}
	return s
}

// Restore replaces the whole database with a copy of s.
func (d *Database) Restore(s Snapshot) {
	names := make([]string, 0, len(s.Names))
	colls := make(map[string][]record.Record, len(s.Names))
	for _, name := range s.Names {
		if _, dup := colls[name]; dup {
			continue
		}
		names = append(names, name)
		colls[name] = cloneAll(s.Collections[name])
	}

	d.mu.Lock()
	d.names = names
	d.colls = colls
	d.mu.Unlock()
}

func (d *Database) ensure(name string) {
	if _, ok := d.colls[name]; ok {
		return
	}
	d.names = append(d.names, name)
	d.colls[name] = nil
}

func (d *Database) indexOf(name, id string) int {
	return slices.IndexFunc(d.colls[name], func(r record.Record) bool {
		return r.HasID(d.idKey, id)
	})
}

func (d *Database) uniqueID(name string) value.Value {
	for {
		id := d.newID()
		if d.indexOf(name, id) < 0 {
			return value.String(id)
		}
	}
}

func cloneAll(rs []record.Record) []record.Record {
	out := make([]record.Record, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
