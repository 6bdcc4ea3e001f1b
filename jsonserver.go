// Package jsonserver serves a JSON document as a REST API: every top-level
// array becomes a resource with list, search, filter, sort, slice and CRUD
// routes.
//
//	router, err := jsonserver.NewRouter("db.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer router.Close()
//	log.Fatal(http.ListenAndServe(":3000", router))
package jsonserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/db/backend"
	"github.com/mpezzi/json-server/internal/db/file"
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
	"github.com/mpezzi/json-server/internal/metrics"
	chiTransport "github.com/mpezzi/json-server/internal/transport/chi"
	healthuc "github.com/mpezzi/json-server/internal/usecase/health"
	resourceuc "github.com/mpezzi/json-server/internal/usecase/resource"
)

// Router is an http.Handler serving one database.
type Router struct {
	handler   http.Handler
	db        *Database
	persister db.Persister
	watcher   *file.Watcher
	logger    *zap.Logger
}

// NewRouter builds a router over source, which is either a path to a JSON or
// YAML document, raw JSON bytes, or any value encoding to a JSON object of
// arrays (a map, a struct, a json.RawMessage). A nil source starts empty.
func NewRouter(source any, opts ...Option) (*Router, error) {
	cfg := &routerConfig{idKey: record.DefaultIDKey}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	seed, path, err := readSource(source)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	persister, err := openBackend(ctx, cfg, path)
	if err != nil {
		return nil, err
	}

	snap := seed
	if persister != nil {
		stored, err := persister.Load(ctx)
		if err != nil {
			_ = persister.Close()
			return nil, fmt.Errorf("jsonserver: load database: %w", err)
		}
		if len(stored.Names) > 0 {
			snap = stored
		}
	}

	store := db.New(cfg.idKey)
	metrics.RegisterStoreMetrics()
	var resOpts []resourceuc.Option
	if persister != nil {
		resOpts = append(resOpts, resourceuc.WithPersister(persister))
	}
	resources := resourceuc.New(store, resOpts...)
	resources.Reload(ctx, snap)

	var pinger healthuc.StoragePinger
	if p, ok := persister.(db.Pinger); ok {
		pinger = p
	}
	server := chiTransport.NewServer(resources, healthuc.New(store, pinger), cfg.logger)

	r := &Router{
		handler: chiTransport.NewRouter(server, chiTransport.RouterConfig{
			Logger:         cfg.logger,
			AllowedOrigins: cfg.allowedOrigins,
			Metrics:        cfg.metrics,
		}),
		db:        &Database{store: store, resources: resources},
		persister: persister,
		logger:    cfg.logger,
	}

	if cfg.watch {
		if err := r.watch(); err != nil {
			_ = r.Close()
			return nil, err
		}
	}
	return r, nil
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// DB returns the live database.
func (r *Router) DB() *Database { return r.db }

// Close stops watching and releases the backend.
func (r *Router) Close() error {
	var errs []error
	if r.watcher != nil {
		errs = append(errs, r.watcher.Stop())
	}
	if r.persister != nil {
		errs = append(errs, r.persister.Close())
	}
	return errors.Join(errs...)
}

func (r *Router) watch() error {
	fs, ok := r.persister.(*file.Store)
	if !ok {
		return errors.New("jsonserver: watch requires a file-backed database")
	}
	r.watcher = file.NewWatcher(fs, func(snap db.Snapshot) {
		r.db.resources.Reload(context.Background(), snap)
	}, file.WithLogger(r.logger))
	if err := r.watcher.Start(); err != nil {
		return fmt.Errorf("jsonserver: watch %s: %w", fs.Path(), err)
	}
	return nil
}

// readSource returns the seed snapshot and, for a path source, the path.
func readSource(source any) (db.Snapshot, string, error) {
	switch src := source.(type) {
	case nil:
		return db.Snapshot{Collections: map[string][]record.Record{}}, "", nil
	case string:
		fs, err := file.NewStore(src)
		if err != nil {
			return db.Snapshot{}, "", fmt.Errorf("jsonserver: %w", err)
		}
		snap, err := fs.Load(context.Background())
		if err != nil {
			return db.Snapshot{}, "", fmt.Errorf("jsonserver: read %s: %w", src, err)
		}
		return snap, src, nil
	case []byte:
		snap, err := db.ParseSnapshot(src)
		if err != nil {
			return db.Snapshot{}, "", fmt.Errorf("jsonserver: %w", err)
		}
		return snap, "", nil
	default:
		v, err := value.FromAny(src)
		if err != nil {
			return db.Snapshot{}, "", fmt.Errorf("jsonserver: %w", err)
		}
		snap, err := db.SnapshotFromValue(v)
		if err != nil {
			return db.Snapshot{}, "", fmt.Errorf("jsonserver: %w", err)
		}
		return snap, "", nil
	}
}

// openBackend picks the persister: the explicit backend, else the source
// file itself, else none.
func openBackend(ctx context.Context, cfg *routerConfig, sourcePath string) (db.Persister, error) {
	bc := backend.Config{Backend: backend.Memory}
	switch {
	case cfg.backend != nil:
		b := cfg.backend
		bc = backend.Config{
			Backend:      b.Kind,
			Path:         b.Path,
			Addrs:        b.Addrs,
			Username:     b.Username,
			Password:     b.Password,
			DB:           b.DB,
			Key:          b.Key,
			ReadyTimeout: b.ReadyTimeout,
		}
		if bc.Backend == backend.File && bc.Path == "" {
			bc.Path = sourcePath
		}
	case sourcePath != "" && !cfg.readOnly:
		bc = backend.Config{Backend: backend.File, Path: sourcePath}
	}

	p, err := backend.Open(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("jsonserver: open %s backend: %w", bc.Backend, err)
	}
	return p, nil
}
