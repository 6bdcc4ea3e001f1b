// Package resource implements the logical operations of the server over the
// record store: dump, list with query and parent filter, and CRUD.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/domain"
	"github.com/mpezzi/json-server/internal/domain/nested"
	"github.com/mpezzi/json-server/internal/domain/query"
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
	"github.com/mpezzi/json-server/internal/logger"
	"github.com/mpezzi/json-server/internal/metrics"
)

// Operation names used in metrics and logs.
const (
	opList    = "list"
	opGet     = "get"
	opCreate  = "create"
	opReplace = "replace"
	opMerge   = "merge"
	opDelete  = "delete"
)

// Page is one list result. Total is the pre-slice count, set only when
// Paginated.
type Page struct {
	Items     []record.Record
	Total     int
	Paginated bool
}

// Option configures a Service.
type Option func(*Service)

// WithPersister saves a snapshot after every successful write.
func WithPersister(p Persister) Option {
	return func(s *Service) { s.persister = p }
}

// Service runs resource operations against a Store.
type Service struct {
	store     Store
	persister Persister

	// persistMu orders snapshot-and-save pairs so the backend never goes
	// back to an older state.
	persistMu sync.Mutex

	// gauged holds the resources this service reports a records gauge for.
	gaugeMu sync.Mutex
	gauged  map[string]struct{}
}

// New creates a resource service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, gauged: make(map[string]struct{})}
	for _, o := range opts {
		o(s)
	}
	s.refreshGauges()
	return s
}

// Dump returns the whole database.
func (s *Service) Dump(_ context.Context) db.Snapshot {
	return s.store.Snapshot()
}

// List runs q over a resource. With a parent, the reference to it inferred
// from the first record joins the field filters, so a search term ignores
// the parent like any other filter.
func (s *Service) List(_ context.Context, name string, q query.Query, parent *nested.Parent) (Page, error) {
	start := time.Now()

	items := s.store.List(name)
	if parent != nil {
		if c, ok := nested.Resolve(items, *parent, s.store.IDKey()); ok {
			q = q.WithFilter(c)
		}
	}
	res := query.Run(items, q)

	metrics.ObserveOperation(opList, s.label(name), time.Since(start), nil)
	return Page{Items: res.Items, Total: res.Total, Paginated: res.Paginated}, nil
}

// Get returns one record.
func (s *Service) Get(_ context.Context, name, id string) (record.Record, error) {
	start := time.Now()
	r, err := s.store.Get(name, id)
	err = mapErr(err)
	metrics.ObserveOperation(opGet, s.label(name), time.Since(start), err)
	if err != nil {
		return record.Record{}, fmt.Errorf("get %s/%s: %w", name, id, err)
	}
	return r, nil
}

// Create inserts body, coerced, into a resource.
func (s *Service) Create(ctx context.Context, name string, body *value.Object) (record.Record, error) {
	start := time.Now()
	r := s.store.Insert(name, value.CoerceObject(body))
	metrics.ObserveOperation(opCreate, s.label(name), time.Since(start), nil)

	id, _ := r.ID(s.store.IDKey())
	logger.FromContext(ctx).Debug("record created",
		zap.String("resource", name),
		zap.String("id", id.Canonical()),
	)
	s.afterWrite(ctx, name)
	return r, nil
}

// Replace swaps every field but the identifier.
func (s *Service) Replace(ctx context.Context, name, id string, body *value.Object) (record.Record, error) {
	return s.update(ctx, opReplace, name, id, body, db.ModeReplace)
}

// Merge shallow-merges body onto the record.
func (s *Service) Merge(ctx context.Context, name, id string, body *value.Object) (record.Record, error) {
	return s.update(ctx, opMerge, name, id, body, db.ModeMerge)
}

func (s *Service) update(ctx context.Context, op, name, id string, body *value.Object, mode db.Mode) (record.Record, error) {
	start := time.Now()
	r, err := s.store.Update(name, id, value.CoerceObject(body), mode)
	err = mapErr(err)
	metrics.ObserveOperation(op, s.label(name), time.Since(start), err)
	if err != nil {
		return record.Record{}, fmt.Errorf("%s %s/%s: %w", op, name, id, err)
	}

	logger.FromContext(ctx).Debug("record updated",
		zap.String("resource", name),
		zap.String("id", id),
		zap.String("op", op),
	)
	s.afterWrite(ctx, name)
	return r, nil
}

// Delete removes a record. Deleting an absent record succeeds.
func (s *Service) Delete(ctx context.Context, name, id string) error {
	start := time.Now()
	removed := s.store.Remove(name, id)
	metrics.ObserveOperation(opDelete, s.label(name), time.Since(start), nil)

	if !removed {
		return nil
	}
	logger.FromContext(ctx).Debug("record deleted",
		zap.String("resource", name),
		zap.String("id", id),
	)
	s.afterWrite(ctx, name)
	return nil
}

// Reload swaps the whole database, e.g. after the source changed on disk.
// Nothing is persisted.
func (s *Service) Reload(ctx context.Context, snap db.Snapshot) {
	s.store.Restore(snap)
	s.refreshGauges()
	logger.FromContext(ctx).Info("database reloaded", zap.Int("resources", len(snap.Names)))
}

func (s *Service) afterWrite(ctx context.Context, name string) {
	s.gaugeMu.Lock()
	s.gauged[name] = struct{}{}
	metrics.SetRecords(name, s.store.Len(name))
	s.gaugeMu.Unlock()
	s.persist(ctx)
}

// persist is best effort: a failed save is logged and the write stands.
func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	start := time.Now()
	err := s.persister.Save(ctx, s.store.Snapshot())
	metrics.ObservePersist(time.Since(start), err)
	if err != nil {
		logger.FromContext(ctx).Error("failed to persist database", zap.Error(err))
	}
}

// refreshGauges sets a gauge per current resource and drops the gauges of
// resources this service reported before but no longer holds. Gauges set by
// other services are left alone.
func (s *Service) refreshGauges() {
	s.gaugeMu.Lock()
	defer s.gaugeMu.Unlock()

	current := make(map[string]struct{})
	for _, name := range s.store.Names() {
		current[name] = struct{}{}
		metrics.SetRecords(name, s.store.Len(name))
	}
	for name := range s.gauged {
		if _, ok := current[name]; !ok {
			metrics.DeleteRecords(name)
		}
	}
	s.gauged = current
}

// label returns the metric label for a resource: its name when the store
// holds it, else metrics.UnknownResource.
func (s *Service) label(name string) string {
	if s.store.Has(name) {
		return name
	}
	return metrics.UnknownResource
}

func mapErr(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}
