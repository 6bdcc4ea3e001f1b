// Package query turns request query parameters into a filter/search, sort and
// slice pipeline over the records of one resource.
package query

import (
	"net/url"
	"sort"

	"github.com/oapi-codegen/runtime"

	"github.com/mpezzi/json-server/internal/domain/value"
)

// Reserved query parameters. None of them is ever used as a field filter.
const (
	ParamSearch   = "q"
	ParamStart    = "_start"
	ParamEnd      = "_end"
	ParamSort     = "_sort"
	ParamOrder    = "_order"
	ParamCallback = "callback"
	ParamNoCache  = "_"
)

var reserved = map[string]bool{
	ParamSearch:   true,
	ParamStart:    true,
	ParamEnd:      true,
	ParamSort:     true,
	ParamOrder:    true,
	ParamCallback: true,
	ParamNoCache:  true,
}

// IsReserved reports whether name is a control parameter rather than a field filter.
func IsReserved(name string) bool { return reserved[name] }

// Order is a sort direction.
type Order string

const (
	// Asc sorts ascending (default).
	Asc Order = "ASC"
	// Desc reverses the ascending order.
	Desc Order = "DESC"
)

// ParseOrder maps an _order value to a direction. Only an exact DESC
// reverses; any other value, lowercase included, is ascending.
func ParseOrder(s string) Order {
	if s == string(Desc) {
		return Desc
	}
	return Asc
}

// Query is the per-request read context.
type Query struct {
	Search    string
	SortField string
	Order     Order
	Start     *int
	End       *int
	Filters   Filters
}

// Paginated reports whether slicing applies (an end bound was given).
func (q Query) Paginated() bool { return q.End != nil }

// WithFilter returns a copy of q with extra filter criteria, e.g. the parent
// of a nested route. Like every field filter they are ignored in search mode.
func (q Query) WithFilter(c ...Criterion) Query {
	filters := make(Filters, 0, len(q.Filters)+len(c))
	filters = append(filters, q.Filters...)
	filters = append(filters, c...)
	q.Filters = filters
	return q
}

// Parse builds a Query from URL query values. Every non-reserved parameter
// becomes an equality filter on its coerced value; when a key repeats, the
// last value wins. Bounds that are not integers are treated as absent.
func Parse(values url.Values) Query {
	q := Query{
		Search:    values.Get(ParamSearch),
		SortField: values.Get(ParamSort),
		Order:     ParseOrder(values.Get(ParamOrder)),
		Start:     bindInt(values, ParamStart),
		End:       bindInt(values, ParamEnd),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if !IsReserved(k) && len(values[k]) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		vs := values[k]
		q.Filters = append(q.Filters, Eq(k, value.CoerceString(vs[len(vs)-1])))
	}
	return q
}

func bindInt(values url.Values, name string) *int {
	var dst *int
	if err := runtime.BindQueryParameter("form", true, false, name, values, &dst); err != nil {
		return nil
	}
	return dst
}
