package value

import (
	"encoding/json"
	"fmt"
)

// FromAny converts a Go value into the tagged model by way of its JSON encoding.
// Map keys come out in encoding/json order (sorted).
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t.Clone(), nil
	case *Object:
		return ObjectOf(t.Clone()), nil
	}
	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("encode %T: %w", x, err)
	}
	return Parse(data)
}

// Any converts v into plain Go values: nil, bool, float64, string,
// map[string]any and []any.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindObject:
		m := make(map[string]any, v.obj.Len())
		v.obj.Range(func(k string, fv Value) bool {
			m[k] = fv.Any()
			return true
		})
		return m
	case KindArray:
		out := make([]any, len(v.arr))
		for i, it := range v.arr {
			out[i] = it.Any()
		}
		return out
	default:
		return nil
	}
}
