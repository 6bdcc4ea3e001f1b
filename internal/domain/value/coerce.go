package value

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	decimalRe = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
	radixRe   = regexp.MustCompile(`^0(?:[xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// Coerce converts a string value to its native scalar counterpart.
// Non-string values are returned unchanged.
func Coerce(v Value) Value {
	s, ok := v.AsString()
	if !ok {
		return v
	}
	return CoerceString(s)
}

// CoerceString applies the coercion rules to a raw transport string:
// empty or whitespace-padded strings stay strings, "true"/"false" become
// booleans, fully numeric strings become numbers, anything else stays a string.
func CoerceString(s string) Value {
	if s == "" || trimSpace(s) != s {
		return String(s)
	}
	if s == "true" || s == "false" {
		return Bool(s == "true")
	}
	if n, ok := parseNumber(s); ok {
		return Number(n)
	}
	return String(s)
}

// CoerceObject returns a copy of o with every top-level string field coerced.
// Nested objects and arrays are left as they are.
func CoerceObject(o *Object) *Object {
	out := NewObject()
	o.Range(func(k string, v Value) bool {
		out.Set(k, Coerce(v))
		return true
	})
	return out
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func parseNumber(s string) (float64, bool) {
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if decimalRe.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil && !math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	if radixRe.MatchString(s) {
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}[s[1]]
		if u, err := strconv.ParseUint(s[2:], base, 64); err == nil {
			return float64(u), true
		}
		i, ok := new(big.Int).SetString(s[2:], base)
		if !ok {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(i).Float64()
		return f, true
	}
	return 0, false
}
