package query

import (
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Shape tells how a criterion compares a record field.
type Shape uint8

const (
	// ShapeEqual requires the field to deep-equal a value.
	ShapeEqual Shape = iota
	// ShapeMember requires the field to be an array holding an object with a given identifier.
	ShapeMember
	// ShapeRef requires the field to be an object with a given identifier.
	ShapeRef
)

// Criterion is one entry of a filter set.
type Criterion struct {
	field string
	shape Shape
	want  value.Value
	idKey string
	id    string
}

// Eq matches records whose field equals want.
func Eq(field string, want value.Value) Criterion {
	return Criterion{field: field, shape: ShapeEqual, want: want}
}

// Member matches records whose field is an array containing an object
// whose idKey renders as id.
func Member(field, idKey, id string) Criterion {
	return Criterion{field: field, shape: ShapeMember, idKey: idKey, id: id}
}

// Ref matches records whose field is an object whose idKey renders as id.
func Ref(field, idKey, id string) Criterion {
	return Criterion{field: field, shape: ShapeRef, idKey: idKey, id: id}
}

// Field returns the record field the criterion inspects.
func (c Criterion) Field() string { return c.field }

// Shape returns the comparison shape.
func (c Criterion) Shape() Shape { return c.shape }

// Want returns the expected value of an equality criterion.
func (c Criterion) Want() value.Value { return c.want }

// ID returns the expected identifier of a member or ref criterion.
func (c Criterion) ID() string { return c.id }

// Match reports whether r satisfies the criterion.
func (c Criterion) Match(r record.Record) bool {
	got, ok := r.Get(c.field)
	if !ok {
		return false
	}
	switch c.shape {
	case ShapeEqual:
		return value.Equal(got, c.want)
	case ShapeMember:
		items, ok := got.AsArray()
		if !ok {
			return false
		}
		for _, it := range items {
			if c.refersTo(it) {
				return true
			}
		}
		return false
	case ShapeRef:
		return c.refersTo(got)
	}
	return false
}

func (c Criterion) refersTo(v value.Value) bool {
	obj, ok := v.AsObject()
	if !ok {
		return false
	}
	return record.FromObject(obj).HasID(c.idKey, c.id)
}

// Filters is a conjunctive filter set.
type Filters []Criterion

// Match reports whether r satisfies every criterion. An empty set matches everything.
func (f Filters) Match(r record.Record) bool {
	for _, c := range f {
		if !c.Match(r) {
			return false
		}
	}
	return true
}
