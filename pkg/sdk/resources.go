package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Record is one resource item as plain JSON values.
type Record map[string]any

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// Parent scopes a listing to the children of one parent record.
type Parent struct {
	Resource string
	ID       string
}

// ListOptions narrows a listing. The zero value lists everything.
type ListOptions struct {
	// Query is a case-insensitive full-text search over string fields.
	// When set, Filters are ignored by the server.
	Query string
	// Filters are exact-match field filters. Values are coerced server side,
	// so "true" matches a boolean and "1" a number.
	Filters map[string]string
	Sort    string
	Order   Order
	// Start and End slice the result. Setting End turns on the total count.
	Start  *int
	End    *int
	Parent *Parent
}

// Int returns a pointer to n, for ListOptions bounds.
func Int(n int) *int { return &n }

func (o ListOptions) values() url.Values {
	v := url.Values{}
	for k, f := range o.Filters {
		v.Set(k, f)
	}
	if o.Query != "" {
		v.Set("q", o.Query)
	}
	if o.Sort != "" {
		v.Set("_sort", o.Sort)
	}
	if o.Order != "" {
		v.Set("_order", string(o.Order))
	}
	if o.Start != nil {
		v.Set("_start", strconv.Itoa(*o.Start))
	}
	if o.End != nil {
		v.Set("_end", strconv.Itoa(*o.End))
	}
	return v
}

// Page is a listing result.
type Page struct {
	Items []Record
	// Total is the count before slicing; only set when Paginated.
	Total     int
	Paginated bool
}

// ResourceClient performs operations on one resource.
type ResourceClient struct {
	name string
	c    *Client
}

// Name returns the resource name.
func (r *ResourceClient) Name() string { return r.name }

// List returns the records matching opts.
func (r *ResourceClient) List(ctx context.Context, opts ListOptions) (Page, error) {
	segments := []string{r.name}
	if opts.Parent != nil {
		segments = []string{opts.Parent.Resource, opts.Parent.ID, r.name}
	}

	var items []Record
	var hdr http.Header
	err := r.c.run("list", r.name, func() (err error) {
		hdr, err = r.c.do(ctx, http.MethodGet, segments, opts.values(), nil, &items)
		return err
	})
	if err != nil {
		return Page{}, fmt.Errorf("list %s: %w", r.name, err)
	}

	page := Page{Items: items}
	if page.Items == nil {
		page.Items = []Record{}
	}
	if tc := hdr.Get("X-Total-Count"); tc != "" {
		total, err := strconv.Atoi(tc)
		if err != nil {
			return Page{}, fmt.Errorf("list %s: %w: X-Total-Count %q", r.name, ErrUnexpectedReply, tc)
		}
		page.Total, page.Paginated = total, true
	}
	return page, nil
}

// Get returns one record. Missing records yield ErrNotFound.
func (r *ResourceClient) Get(ctx context.Context, id string) (Record, error) {
	return r.call(ctx, "get", http.MethodGet, id, nil)
}

// Create inserts a record and returns it with its identifier.
func (r *ResourceClient) Create(ctx context.Context, rec Record) (Record, error) {
	var out Record
	err := r.c.run("create", r.name, func() error {
		_, err := r.c.do(ctx, http.MethodPost, []string{r.name}, nil, rec, &out)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.name, err)
	}
	return out, nil
}

// Replace overwrites a record; the identifier is kept.
func (r *ResourceClient) Replace(ctx context.Context, id string, rec Record) (Record, error) {
	return r.call(ctx, "replace", http.MethodPut, id, rec)
}

// Merge updates the given fields of a record.
func (r *ResourceClient) Merge(ctx context.Context, id string, fields Record) (Record, error) {
	return r.call(ctx, "merge", http.MethodPatch, id, fields)
}

// Delete removes a record. Deleting a missing record is not an error.
func (r *ResourceClient) Delete(ctx context.Context, id string) error {
	err := r.c.run("delete", r.name, func() error {
		_, err := r.c.do(ctx, http.MethodDelete, []string{r.name, id}, nil, nil, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", r.name, id, err)
	}
	return nil
}

func (r *ResourceClient) call(ctx context.Context, op, method, id string, in Record) (Record, error) {
	var out Record
	var body any
	if in != nil {
		body = in
	}
	err := r.c.run(op, r.name, func() error {
		_, err := r.c.do(ctx, method, []string{r.name, id}, nil, body, &out)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s/%s: %w", op, r.name, id, err)
	}
	return out, nil
}
