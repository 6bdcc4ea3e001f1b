package query

import (
	"slices"
	"strings"

	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Result is the outcome of running a Query over a collection.
type Result struct {
	Items []record.Record
	// Total is the length before slicing. Only meaningful when Paginated.
	Total     int
	Paginated bool
}

// Run applies the query to records: search or filter, then sort, then
// slice. Search and filters are exclusive: with a search term every filter
// is ignored. The input slice is never modified.
func Run(records []record.Record, q Query) Result {
	var items []record.Record
	if q.Search != "" {
		items = Search(records, q.Search)
	} else {
		items = Filter(records, q.Filters)
	}
	items = Sort(items, q.SortField, q.Order)

	if !q.Paginated() {
		return Result{Items: items}
	}
	total := len(items)
	start := 0
	if q.Start != nil {
		start = *q.Start
	}
	return Result{Items: Slice(items, start, *q.End), Total: total, Paginated: true}
}

// Filter keeps the records matching every criterion, in order.
func Filter(records []record.Record, f Filters) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps the records having a string field that contains term,
// ignoring case. Non-string fields are skipped.
func Search(records []record.Record, term string) []record.Record {
	term = strings.ToLower(term)
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if containsTerm(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func containsTerm(r record.Record, term string) bool {
	found := false
	r.Range(func(_ string, v value.Value) bool {
		if s, ok := v.AsString(); ok && strings.Contains(strings.ToLower(s), term) {
			found = true
		}
		return !found
	})
	return found
}

// Sort returns records stably ordered by field. Records lacking the field
// go last. Desc reverses the whole ascending sequence. An empty field keeps
// the original order.
func Sort(records []record.Record, field string, order Order) []record.Record {
	out := slices.Clone(records)
	if field == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b record.Record) int {
		av, aok := a.Get(field)
		bv, bok := b.Get(field)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		return value.Compare(av, bv)
	})
	if order == Desc {
		slices.Reverse(out)
	}
	return out
}

// Slice returns records[start:end] with sequence-slice clamping. Negative
// bounds count from the end.
func Slice(records []record.Record, start, end int) []record.Record {
	n := len(records)
	start, end = clamp(start, n), clamp(end, n)
	if start >= end {
		return []record.Record{}
	}
	return slices.Clone(records[start:end])
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}
