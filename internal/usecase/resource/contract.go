package resource

import (
	"context"

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// Store defines the record store contract.
type Store interface {
	IDKey() string
	Names() []string
	Has(name string) bool
	Len(name string) int
	List(name string) []record.Record
	Get(name, id string) (record.Record, error)
	Insert(name string, body *value.Object) record.Record
	Update(name, id string, body *value.Object, mode db.Mode) (record.Record, error)
	Remove(name, id string) bool
	Snapshot() db.Snapshot
	Restore(s db.Snapshot)
}

// Persister saves the database after each write.
type Persister interface {
	Save(ctx context.Context, s db.Snapshot) error
}
