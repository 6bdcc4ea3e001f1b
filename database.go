package jsonserver

import (
	"context"
	"fmt"

	"github.com/mpezzi/json-server/internal/db"
	resourceuc "github.com/mpezzi/json-server/internal/usecase/resource"
)

// Database is the live document behind a Router.
type Database struct {
	store     *db.Database
	resources *resourceuc.Service
}

// Names returns the resource names in document order.
func (d *Database) Names() []string { return d.store.Names() }

// Len returns the number of records in a resource.
func (d *Database) Len(name string) int { return d.store.Len(name) }

// Object returns a detached copy of the whole document as plain Go values.
func (d *Database) Object() map[string]any {
	m, _ := d.store.Snapshot().Value().Any().(map[string]any)
	return m
}

// Collection returns a detached copy of one resource. Unknown resources are empty.
func (d *Database) Collection(name string) []map[string]any {
	rs := d.store.List(name)
	out := make([]map[string]any, 0, len(rs))
	for _, r := range rs {
		if m, ok := r.Value().Any().(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// MarshalJSON encodes the document with its original key order.
func (d *Database) MarshalJSON() ([]byte, error) {
	data, err := d.store.Snapshot().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode database: %w", err)
	}
	return data, nil
}

// Reload replaces the whole document with source (same forms as NewRouter).
// Nothing is persisted.
func (d *Database) Reload(source any) error {
	snap, _, err := readSource(source)
	if err != nil {
		return err
	}
	d.resources.Reload(context.Background(), snap)
	return nil
}
