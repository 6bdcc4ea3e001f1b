// Package nested infers how child records reference a parent record.
//
// Collections are assumed homogeneous: only the first child record is
// inspected. A field named after the parent's plural form holding an array
// means "array of referenced objects", a field named after its singular form
// holding an object means "single embedded reference".
package nested

import (
	"github.com/jinzhu/inflection"

	"github.com/mpezzi/json-server/internal/domain/query"
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Parent identifies the parent side of a nested route.
type Parent struct {
	Resource string
	ID       string
}

// Plural returns the plural form of word.
func Plural(word string) string { return inflection.Plural(word) }

// Singular returns the singular form of word.
func Singular(word string) string { return inflection.Singular(word) }

// Resolve returns the criterion scoping children to parent, or false when
// the child collection is empty or its first record matches neither shape.
func Resolve(children []record.Record, parent Parent, idKey string) (query.Criterion, bool) {
	if len(children) == 0 {
		return query.Criterion{}, false
	}
	first := children[0]

	plural := Plural(parent.Resource)
	if v, ok := first.Get(plural); ok && v.Kind() == value.KindArray {
		return query.Member(plural, idKey, parent.ID), true
	}

	singular := Singular(parent.Resource)
	if v, ok := first.Get(singular); ok && v.Kind() == value.KindObject {
		return query.Ref(singular, idKey, parent.ID), true
	}
	return query.Criterion{}, false
}
