package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

func records(t *testing.T, src string) []record.Record {
	t.Helper()
	var out []record.Record
	if err := json.Unmarshal([]byte(src), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func ids(rs []record.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		id, _ := r.ID(record.DefaultIDKey)
		out[i] = id.Canonical()
	}
	return out
}

func intp(i int) *int { return &i }

func comments(t *testing.T) []record.Record {
	t.Helper()
	rs := make([]record.Record, 5)
	for i := range rs {
		rs[i] = record.New()
		rs[i].Set("uuid", value.String(fmt.Sprintf("c%d", i)))
		rs[i].Set("weight", value.Number(float64(i)))
	}
	return rs
}

const tags = `[
	{"uuid":"A","body":"Technology"},
	{"uuid":"B","body":"Photography"},
	{"uuid":"C","body":"photo"}
]`

func TestRun_Search(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"pho", []string{"B", "C"}},
		{"PHO", []string{"B", "C"}},
		{"nope", []string{}},
		{"tech", []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			res := Run(records(t, tags), Query{Search: tt.term})
			if got := ids(res.Items); fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_SearchSkipsNonStrings(t *testing.T) {
	rs := records(t, `[{"uuid":"A","n":123},{"uuid":"B","s":"123"}]`)
	res := Run(rs, Query{Search: "12"})
	if got := ids(res.Items); fmt.Sprint(got) != "[B]" {
		t.Errorf("ids = %v, want [B]", got)
	}
}

func TestRun_SearchIgnoresFieldFilters(t *testing.T) {
	q := Query{Search: "pho", Filters: Filters{Eq("uuid", value.String("A"))}}
	res := Run(records(t, tags), q)
	if got := ids(res.Items); fmt.Sprint(got) != "[B C]" {
		t.Errorf("ids = %v", got)
	}
}

func TestRun_Filter(t *testing.T) {
	rs := records(t, `[
		{"uuid":"1","published":true,"author":"a"},
		{"uuid":"2","published":false,"author":"a"},
		{"uuid":"3","published":true,"author":"b"},
		{"uuid":"4","author":"a"}
	]`)
	tests := []struct {
		name    string
		filters Filters
		want    string
	}{
		{"none", nil, "[1 2 3 4]"},
		{"bool", Filters{Eq("published", value.Bool(true))}, "[1 3]"},
		{"conjunctive", Filters{Eq("published", value.Bool(true)), Eq("author", value.String("a"))}, "[1]"},
		{"missing field", Filters{Eq("published", value.Bool(false))}, "[2]"},
		{"no match", Filters{Eq("author", value.String("z"))}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(rs, Query{Filters: tt.filters})
			if got := fmt.Sprint(ids(res.Items)); got != tt.want {
				t.Errorf("ids = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRun_SortDescReversesEndToEnd(t *testing.T) {
	res := Run(comments(t), Query{SortField: "weight", Order: Desc})
	if got := fmt.Sprint(ids(res.Items)); got != "[c4 c3 c2 c1 c0]" {
		t.Errorf("ids = %s", got)
	}
	if res.Paginated {
		t.Error("should not be paginated without an end bound")
	}
}

func TestRun_LowercaseDescSortsAscending(t *testing.T) {
	q := Parse(url.Values{"_sort": {"weight"}, "_order": {"desc"}})
	res := Run(comments(t), q)
	if got := fmt.Sprint(ids(res.Items)); got != "[c0 c1 c2 c3 c4]" {
		t.Errorf("ids = %s", got)
	}
}

func TestSort_StableAndReversedAsGroup(t *testing.T) {
	rs := records(t, `[
		{"uuid":"a","k":2},
		{"uuid":"b","k":1},
		{"uuid":"c","k":2},
		{"uuid":"d"},
		{"uuid":"e","k":1}
	]`)
	asc := Sort(rs, "k", Asc)
	if got := fmt.Sprint(ids(asc)); got != "[b e a c d]" {
		t.Errorf("asc = %s", got)
	}
	desc := Sort(rs, "k", Desc)
	if got := fmt.Sprint(ids(desc)); got != "[d c a e b]" {
		t.Errorf("desc = %s", got)
	}
	if got := fmt.Sprint(ids(rs)); got != "[a b c d e]" {
		t.Errorf("input mutated: %s", got)
	}
}

func TestRun_Paginate(t *testing.T) {
	tests := []struct {
		name      string
		start     *int
		end       *int
		want      string
		total     int
		paginated bool
	}{
		{"end only", nil, intp(2), "[c0 c1]", 5, true},
		{"start and end", intp(1), intp(2), "[c1]", 5, true},
		{"end past bounds", intp(3), intp(10), "[c3 c4]", 5, true},
		{"start past end", intp(4), intp(2), "[]", 5, true},
		{"negative end", nil, intp(-1), "[c0 c1 c2 c3]", 5, true},
		{"start without end", intp(3), nil, "[c0 c1 c2 c3 c4]", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(comments(t), Query{Start: tt.start, End: tt.end})
			if got := fmt.Sprint(ids(res.Items)); got != tt.want {
				t.Errorf("ids = %s, want %s", got, tt.want)
			}
			if res.Paginated != tt.paginated {
				t.Errorf("Paginated = %v, want %v", res.Paginated, tt.paginated)
			}
			if res.Total != tt.total {
				t.Errorf("Total = %d, want %d", res.Total, tt.total)
			}
		})
	}
}

func TestRun_OrderOfStages(t *testing.T) {
	q := Query{
		Filters:   Filters{Eq("odd", value.Bool(false))},
		SortField: "weight",
		Order:     Desc,
		End:       intp(2),
	}
	rs := comments(t)
	for i := range rs {
		rs[i].Set("odd", value.Bool(i%2 == 1))
	}
	res := Run(rs, q)
	if got := fmt.Sprint(ids(res.Items)); got != "[c4 c2]" {
		t.Errorf("ids = %s, want [c4 c2]", got)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
}

func TestCriterion_ParentShapes(t *testing.T) {
	rs := records(t, `[
		{"uuid":"c1","posts":[{"uuid":"p1"},{"uuid":"p2"}],"post":{"uuid":"p1"}},
		{"uuid":"c2","posts":[{"uuid":"p2"}],"post":{"uuid":"p2"}},
		{"uuid":"c3","posts":"p1","post":"p1"}
	]`)
	member := Filter(rs, Filters{Member("posts", "uuid", "p1")})
	if got := fmt.Sprint(ids(member)); got != "[c1]" {
		t.Errorf("member = %s", got)
	}
	ref := Filter(rs, Filters{Ref("post", "uuid", "p2")})
	if got := fmt.Sprint(ids(ref)); got != "[c2]" {
		t.Errorf("ref = %s", got)
	}
}

func TestRun_SearchIgnoresParentFilter(t *testing.T) {
	rs := records(t, `[
		{"uuid":"c1","body":"photo","post":{"uuid":"p1"}},
		{"uuid":"c2","body":"photo","post":{"uuid":"p2"}}
	]`)
	parent := Ref("post", "uuid", "p2")

	res := Run(rs, Query{Search: "pho"}.WithFilter(parent))
	if got := fmt.Sprint(ids(res.Items)); got != "[c1 c2]" {
		t.Errorf("search ids = %s, want [c1 c2]", got)
	}
	res = Run(rs, Query{}.WithFilter(parent))
	if got := fmt.Sprint(ids(res.Items)); got != "[c2]" {
		t.Errorf("filter ids = %s, want [c2]", got)
	}
}

func TestQuery_WithFilterCopies(t *testing.T) {
	base := Query{Filters: make(Filters, 1, 4)}
	a := base.WithFilter(Eq("a", value.Number(1)))
	b := base.WithFilter(Eq("b", value.Number(2)))
	if len(base.Filters) != 1 {
		t.Fatalf("base filters = %d, want 1", len(base.Filters))
	}
	if a.Filters[1].Field() != "a" || b.Filters[1].Field() != "b" {
		t.Errorf("filters share storage: %q %q", a.Filters[1].Field(), b.Filters[1].Field())
	}
}
