package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/domain/record"
	healthuc "github.com/mpezzi/json-server/internal/usecase/health"
	resourceuc "github.com/mpezzi/json-server/internal/usecase/resource"
)

// --- Mocks ---

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Helpers ---

const (
	post0 = "0000217a-8adb-11e1-94d2-12313928d5b8"
	post1 = "0000e862-dbb2-11e3-9eb3-22000b04072f"
)

const fixture = `{
	"posts": [
		{"uuid": "0000217a-8adb-11e1-94d2-12313928d5b8", "body": "foo"},
		{"uuid": "0000e862-dbb2-11e3-9eb3-22000b04072f", "body": "bar"}
	],
	"tags": [
		{"uuid": "0000217a-8adb-11e1-94d2-12313928d5b8", "body": "Technology"},
		{"uuid": "0000e862-dbb2-11e3-9eb3-22000b04072f", "body": "Photography"},
		{"uuid": "00011541-824e-11e1-9eb5-12313928d5b8", "body": "photo"}
	],
	"comments": [
		{"uuid": "0000217a-8adb-11e1-94d2-12313928d5b8", "published": true, "weight": 0,
		 "post": {"uuid": "0000217a-8adb-11e1-94d2-12313928d5b8"}},
		{"uuid": "0000e862-dbb2-11e3-9eb3-22000b04072f", "published": false, "weight": 1,
		 "post": {"uuid": "0000217a-8adb-11e1-94d2-12313928d5b8"}},
		{"uuid": "00011541-824e-11e1-9eb5-12313928d5b8", "published": false, "weight": 2,
		 "post": {"uuid": "0000e862-dbb2-11e3-9eb3-22000b04072f"}},
		{"uuid": "0002a6ed-a8e9-11e3-9170-12313920a02c", "published": false, "weight": 3,
		 "post": {"uuid": "0000e862-dbb2-11e3-9eb3-22000b04072f"}},
		{"uuid": "0002b36c-8f95-11e4-b588-22000b04072f", "published": false, "weight": 4,
		 "post": {"uuid": "0000e862-dbb2-11e3-9eb3-22000b04072f"}}
	],
	"refs": [
		{"id": "abcd-1234", "url": "http://example.com", "postId": 1}
	]
}`

type testEnv struct {
	db      *db.Database
	handler http.Handler
	fixture map[string][]any
}

func newTestEnv(t *testing.T, storage healthuc.StoragePinger) *testEnv {
	t.Helper()
	snap, err := db.ParseSnapshot([]byte(fixture))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	store := db.New(record.DefaultIDKey)
	store.Restore(snap)

	var want map[string][]any
	if err := json.Unmarshal([]byte(fixture), &want); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	srv := NewServer(resourceuc.New(store), healthuc.New(store, storage), nil)
	return &testEnv{
		db:      store,
		handler: NewRouter(srv, RouterConfig{}),
		fixture: want,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

func assertJSON(t *testing.T, rr *httptest.ResponseRecorder, status int, want any) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "json") {
		t.Errorf("Content-Type = %q, want json", ct)
	}
	if got := decode(t, rr); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v\nwant   %v", got, want)
	}
}

func pick(items []any, idx ...int) []any {
	out := make([]any, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}

func toAny(m map[string][]any) any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- Tests ---

func TestDump(t *testing.T) {
	e := newTestEnv(t, nil)
	assertJSON(t, e.do(t, http.MethodGet, "/db", ""), http.StatusOK, toAny(e.fixture))
}

func TestList_CORS(t *testing.T) {
	e := newTestEnv(t, nil)
	rr := e.do(t, http.MethodGet, "/posts", "", "Origin", "http://example.com")
	assertJSON(t, rr, http.StatusOK, e.fixture["posts"])
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestList_Queries(t *testing.T) {
	e := newTestEnv(t, nil)
	tags, comments := e.fixture["tags"], e.fixture["comments"]

	tests := []struct {
		name   string
		target string
		want   []any
	}{
		{"filter", "/comments?published=true", pick(comments, 0)},
		{"search", "/tags?q=pho", pick(tags, 1, 2)},
		{"search no match", "/tags?q=nope", []any{}},
		{"sort", "/tags?_sort=body", pick(tags, 1, 0, 2)},
		{"sort desc", "/tags?_sort=body&_order=DESC", pick(tags, 2, 0, 1)},
		{"sort numeric desc", "/comments?_sort=weight&_order=DESC", pick(comments, 4, 3, 2, 1, 0)},
		{"unknown resource", "/nothing", []any{}},
		{"trailing slash", "/tags/", tags},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodGet, tt.target, "")
			assertJSON(t, rr, http.StatusOK, tt.want)
			if rr.Header().Get("X-Total-Count") != "" {
				t.Errorf("unexpected X-Total-Count on unpaginated list")
			}
		})
	}
}

func TestList_Pagination(t *testing.T) {
	e := newTestEnv(t, nil)
	comments := e.fixture["comments"]

	tests := []struct {
		target string
		want   []any
	}{
		{"/comments?_end=2", pick(comments, 0, 1)},
		{"/comments?_start=1&_end=2", pick(comments, 1)},
		{"/comments?_start=-2&_end=5", pick(comments, 3, 4)},
		{"/comments?_start=abc&_end=1", pick(comments, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := e.do(t, http.MethodGet, tt.target, "")
			assertJSON(t, rr, http.StatusOK, tt.want)
			if got := rr.Header().Get("X-Total-Count"); got != "5" {
				t.Errorf("X-Total-Count = %q, want 5", got)
			}
			if got := rr.Header().Get("Access-Control-Expose-Headers"); got != "X-Total-Count" {
				t.Errorf("Expose-Headers = %q", got)
			}
		})
	}
}

func TestNestedList(t *testing.T) {
	e := newTestEnv(t, nil)
	comments := e.fixture["comments"]

	assertJSON(t, e.do(t, http.MethodGet, "/posts/"+post0+"/comments", ""),
		http.StatusOK, pick(comments, 0, 1))
	assertJSON(t, e.do(t, http.MethodGet, "/posts/"+post1+"/comments?_sort=weight&_order=DESC&_end=2", ""),
		http.StatusOK, pick(comments, 4, 3))
	// tags carry no reference to posts: the parent cannot scope them.
	assertJSON(t, e.do(t, http.MethodGet, "/posts/"+post0+"/tags", ""),
		http.StatusOK, e.fixture["tags"])
}

func TestGet(t *testing.T) {
	e := newTestEnv(t, nil)
	assertJSON(t, e.do(t, http.MethodGet, "/posts/"+post0, ""), http.StatusOK, e.fixture["posts"][0])
	assertJSON(t, e.do(t, http.MethodGet, "/posts/9001", ""), http.StatusNotFound, map[string]any{})
	assertJSON(t, e.do(t, http.MethodGet, "/refs/abcd-1234", ""), http.StatusNotFound, map[string]any{})
}

func TestCreate(t *testing.T) {
	e := newTestEnv(t, nil)

	rr := e.do(t, http.MethodPost, "/posts", `{"body":"foo","booleanValue":"true","integerValue":"1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	posts := e.db.List("posts")
	if len(posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(posts))
	}
	last := decodeRecord(t, posts[2])
	if last["body"] != "foo" || last["booleanValue"] != true || last["integerValue"] != float64(1) {
		t.Errorf("last = %v", last)
	}
	if _, ok := last["uuid"].(string); !ok {
		t.Errorf("generated id missing: %v", last)
	}
	if got := decode(t, rr); !reflect.DeepEqual(got, any(last)) {
		t.Errorf("response = %v, stored = %v", got, last)
	}

	rr = e.do(t, http.MethodPost, "/refs", `{"url":"http://foo.com","postId":"1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if n := e.db.Len("refs"); n != 2 {
		t.Errorf("refs = %d, want 2", n)
	}
}

func TestCreate_NewResource(t *testing.T) {
	e := newTestEnv(t, nil)
	rr := e.do(t, http.MethodPost, "/authors", `{"name":"ann"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if n := e.db.Len("authors"); n != 1 {
		t.Errorf("authors = %d, want 1", n)
	}
}

func TestCreate_FormBody(t *testing.T) {
	e := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("body=baz&views=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode(t, rr).(map[string]any)
	if got["body"] != "baz" || got["views"] != float64(3) {
		t.Errorf("created = %v", got)
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	e := newTestEnv(t, nil)
	rr := e.do(t, http.MethodPost, "/posts", `{"body":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Code != codeBadRequest {
		t.Errorf("error body = %s", rr.Body.String())
	}
	if n := e.db.Len("posts"); n != 2 {
		t.Errorf("posts = %d, want 2", n)
	}
}

func TestReplace(t *testing.T) {
	e := newTestEnv(t, nil)
	want := map[string]any{"uuid": post0, "body": "bar", "booleanValue": true, "integerValue": float64(1)}

	rr := e.do(t, http.MethodPut, "/posts/"+post0, `{"body":"bar","booleanValue":"true","integerValue":"1"}`)
	assertJSON(t, rr, http.StatusOK, want)
	if got := decodeRecord(t, e.db.List("posts")[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("stored = %v", got)
	}

	rr = e.do(t, http.MethodPut, "/posts/9001", `{"id":1,"body":"bar"}`)
	assertJSON(t, rr, http.StatusNotFound, map[string]any{})
}

func TestMerge(t *testing.T) {
	e := newTestEnv(t, nil)
	want := map[string]any{"uuid": post0, "body": "bar"}

	rr := e.do(t, http.MethodPatch, "/posts/"+post0, `{"body":"bar"}`)
	assertJSON(t, rr, http.StatusOK, want)
	if got := decodeRecord(t, e.db.List("posts")[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("stored = %v", got)
	}

	assertJSON(t, e.do(t, http.MethodPatch, "/posts/9001", `{"body":"bar"}`), http.StatusNotFound, map[string]any{})
}

func TestDelete(t *testing.T) {
	e := newTestEnv(t, nil)

	rr := e.do(t, http.MethodDelete, "/posts/"+post0, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if n := e.db.Len("posts"); n != 1 {
		t.Errorf("posts = %d, want 1", n)
	}

	rr = e.do(t, http.MethodDelete, "/posts/9001", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("missing record: status = %d, want 204", rr.Code)
	}
}

func TestMethodOverride(t *testing.T) {
	e := newTestEnv(t, nil)
	rr := e.do(t, http.MethodPost, "/posts/"+post0, `{"body":"over"}`, MethodOverrideHeader, "PATCH")
	assertJSON(t, rr, http.StatusOK, map[string]any{"uuid": post0, "body": "over"})
}

func TestJSONP(t *testing.T) {
	e := newTestEnv(t, nil)
	rr := e.do(t, http.MethodGet, "/posts/"+post1+"?callback=cb", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	want := `/**/ typeof cb === 'function' && cb({"uuid":"` + post1 + `","body":"bar"});`
	if got := rr.Body.String(); got != want {
		t.Errorf("body = %q\nwant   %q", got, want)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestStatic(t *testing.T) {
	e := newTestEnv(t, nil)

	rr := e.do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "You're successfully running JSON Server") {
		t.Errorf("GET / = %d %q", rr.Code, rr.Body.String())
	}

	rr = e.do(t, http.MethodGet, "/stylesheets/style.css", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Header().Get("Content-Type"), "css") {
		t.Errorf("GET style.css = %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		storage    healthuc.StoragePinger
		wantStatus int
		wantBody   string
	}{
		{"memory only", nil, http.StatusOK, "ok"},
		{"storage up", &mockPinger{}, http.StatusOK, "ok"},
		{"storage down", &mockPinger{err: errors.New("down")}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, tt.storage)
			rr := e.do(t, http.MethodGet, "/health", "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp healthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if string(resp.Status) != tt.wantBody || resp.Resources != 4 {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func decodeRecord(t *testing.T, r record.Record) map[string]any {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}
