package query

import (
	"net/url"
	"testing"

	"github.com/mpezzi/json-server/internal/domain/value"
)

func TestParse_StripsReserved(t *testing.T) {
	values := url.Values{
		"q":        {"pho"},
		"_start":   {"1"},
		"_end":     {"3"},
		"_sort":    {"weight"},
		"_order":   {"DESC"},
		"callback": {"cb"},
		"_":        {"123"},
		"author":   {"typicode"},
	}
	q := Parse(values)

	if q.Search != "pho" {
		t.Errorf("Search = %q", q.Search)
	}
	if q.SortField != "weight" || q.Order != Desc {
		t.Errorf("sort = %q %q", q.SortField, q.Order)
	}
	if q.Start == nil || *q.Start != 1 {
		t.Errorf("Start = %v", q.Start)
	}
	if q.End == nil || *q.End != 3 {
		t.Errorf("End = %v", q.End)
	}
	if len(q.Filters) != 1 || q.Filters[0].Field() != "author" {
		t.Fatalf("Filters = %+v, want only author", q.Filters)
	}
}

func TestParse_CoercesFilters(t *testing.T) {
	q := Parse(url.Values{
		"published": {"true"},
		"views":     {"10"},
		"title":     {"hello"},
		"empty":     {""},
	})
	want := map[string]value.Value{
		"published": value.Bool(true),
		"views":     value.Number(10),
		"title":     value.String("hello"),
		"empty":     value.String(""),
	}
	if len(q.Filters) != len(want) {
		t.Fatalf("got %d filters, want %d", len(q.Filters), len(want))
	}
	for _, c := range q.Filters {
		if !value.Equal(c.Want(), want[c.Field()]) {
			t.Errorf("%s = %s, want %s", c.Field(), c.Want().Canonical(), want[c.Field()].Canonical())
		}
	}
}

func TestParse_RepeatedKeyLastWins(t *testing.T) {
	q := Parse(url.Values{"id": {"1", "2"}})
	if len(q.Filters) != 1 || !value.Equal(q.Filters[0].Want(), value.Number(2)) {
		t.Fatalf("Filters = %+v", q.Filters)
	}
}

func TestParse_BadBoundsAreAbsent(t *testing.T) {
	q := Parse(url.Values{"_start": {"abc"}, "_end": {"x"}})
	if q.Start != nil || q.End != nil {
		t.Fatalf("bounds = %v %v, want nil", q.Start, q.End)
	}
	if q.Paginated() {
		t.Error("should not be paginated")
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want Order
	}{
		{"DESC", Desc},
		{"desc", Asc},
		{"Desc", Asc},
		{"ASC", Asc},
		{"", Asc},
		{"sideways", Asc},
	}
	for _, tt := range tests {
		if got := ParseOrder(tt.in); got != tt.want {
			t.Errorf("ParseOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
