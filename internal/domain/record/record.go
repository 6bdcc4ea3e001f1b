// Package record defines the schemaless record stored in a resource collection.
package record

import (
	"fmt"

	"github.com/mpezzi/json-server/internal/domain/value"
)

// DefaultIDKey is the field name used as identifier when none is configured.
const DefaultIDKey = "uuid"

// Record is an ordered field mapping. A zero Record reads as empty.
type Record struct {
	obj *value.Object
}

// New creates an empty record.
func New() Record {
	return Record{obj: value.NewObject()}
}

// FromObject wraps o without copying it.
func FromObject(o *value.Object) Record {
	if o == nil {
		o = value.NewObject()
	}
	return Record{obj: o}
}

// FromValue wraps an object value. Any other kind is rejected.
func FromValue(v value.Value) (Record, error) {
	obj, ok := v.AsObject()
	if !ok {
		return Record{}, fmt.Errorf("record must be an object, got %s", v.Kind())
	}
	return FromObject(obj), nil
}

// Object exposes the underlying field mapping.
func (r Record) Object() *value.Object { return r.obj }

// Get returns a field value.
func (r Record) Get(field string) (value.Value, bool) { return r.obj.Get(field) }

// Fields returns the field names in order.
func (r Record) Fields() []string { return r.obj.Keys() }

// Len returns the number of fields.
func (r Record) Len() int { return r.obj.Len() }

// Range iterates fields in order until fn returns false.
func (r Record) Range(fn func(field string, v value.Value) bool) { r.obj.Range(fn) }

// Set stores a field.
func (r *Record) Set(field string, v value.Value) {
	if r.obj == nil {
		r.obj = value.NewObject()
	}
	r.obj.Set(field, v)
}

// Delete removes a field.
func (r *Record) Delete(field string) { r.obj.Delete(field) }

// ID returns the identifier stored under idKey. Null counts as absent.
func (r Record) ID(idKey string) (value.Value, bool) {
	v, ok := r.obj.Get(idKey)
	if !ok || v.IsNull() {
		return value.Value{}, false
	}
	return v, true
}

// HasID reports whether the identifier under idKey renders as id.
func (r Record) HasID(idKey, id string) bool {
	v, ok := r.ID(idKey)
	return ok && v.Canonical() == id
}

// Clone returns a deep copy.
func (r Record) Clone() Record { return Record{obj: r.obj.Clone()} }

// Equal reports deep equality ignoring field order.
func (r Record) Equal(other Record) bool { return r.obj.Equal(other.obj) }

// Value wraps the record as an object value.
func (r Record) Value() value.Value { return value.ObjectOf(r.obj) }

// Replaced builds the record that results from a full replace: the identifier
// of r first, then every field of body except the identifier.
func (r Record) Replaced(idKey string, body *value.Object) Record {
	out := New()
	if id, ok := r.obj.Get(idKey); ok {
		out.Set(idKey, id)
	}
	body.Range(func(k string, v value.Value) bool {
		if k != idKey {
			out.Set(k, v.Clone())
		}
		return true
	})
	return out
}

// Merged builds the record that results from a shallow merge of body onto r.
// Existing fields keep their position; the identifier is never overwritten.
func (r Record) Merged(idKey string, body *value.Object) Record {
	out := r.Clone()
	body.Range(func(k string, v value.Value) bool {
		if k != idKey {
			out.Set(k, v.Clone())
		}
		return true
	})
	return out
}

// MarshalJSON encodes the record with fields in order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.obj == nil {
		return []byte("{}"), nil
	}
	b, err := r.obj.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return b, nil
}

// UnmarshalJSON decodes a JSON object.
func (r *Record) UnmarshalJSON(data []byte) error {
	obj := value.NewObject()
	if err := obj.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	r.obj = obj
	return nil
}
