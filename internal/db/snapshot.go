package db

import (
	"bytes"
	"fmt"

	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Snapshot is a detached copy of a database: resource names in order and
// their collections. Its document form is an object of arrays of objects.
type Snapshot struct {
	Names       []string
	Collections map[string][]record.Record
}

// Collection returns the records of a resource.
func (s Snapshot) Collection(name string) []record.Record { return s.Collections[name] }

// Value renders the snapshot as a document value.
func (s Snapshot) Value() value.Value {
	doc := value.NewObject()
	for _, name := range s.Names {
		coll := s.Collections[name]
		items := make([]value.Value, len(coll))
		for i, r := range coll {
			items[i] = r.Value()
		}
		doc.Set(name, value.Array(items...))
	}
	return value.ObjectOf(doc)
}

// MarshalJSON encodes the document form.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return s.Value().MarshalJSON()
}

// UnmarshalJSON decodes the document form.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSnapshot(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSnapshot decodes a JSON document. Empty input yields an empty snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{Collections: map[string][]record.Record{}}, nil
	}
	v, err := value.Parse(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return SnapshotFromValue(v)
}

// SnapshotFromValue validates a document: an object whose values are arrays
// of objects.
func SnapshotFromValue(v value.Value) (Snapshot, error) {
	doc, ok := v.AsObject()
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: root is %s, want object", ErrMalformed, v.Kind())
	}

	s := Snapshot{Collections: make(map[string][]record.Record, doc.Len())}
	var err error
	doc.Range(func(name string, coll value.Value) bool {
		items, ok := coll.AsArray()
		if !ok {
			err = fmt.Errorf("%w: %q is %s, want array", ErrMalformed, name, coll.Kind())
			return false
		}
		rs := make([]record.Record, 0, len(items))
		for i, it := range items {
			r, rerr := record.FromValue(it)
			if rerr != nil {
				err = fmt.Errorf("%w: %s[%d]: %w", ErrMalformed, name, i, rerr)
				return false
			}
			rs = append(rs, r)
		}
		s.Names = append(s.Names, name)
		s.Collections[name] = rs
		return true
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
