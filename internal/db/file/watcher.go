package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mpezzi/json-server/internal/db"
)

const defaultDebounce = 100 * time.Millisecond

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long events must settle before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the watcher logger.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// Watcher reloads the document when it changes on disk and hands the new
// snapshot to onChange. Writes made through the Store itself are ignored.
// It watches the parent directory so editors that save by rename are seen.
type Watcher struct {
	store    *Store
	onChange func(db.Snapshot)
	debounce time.Duration
	logger   *zap.Logger

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher for store.
func NewWatcher(store *Store, onChange func(db.Snapshot), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:    store,
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start begins watching.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return &db.Error{Op: db.OpWatch, Err: err}
	}
	dir := filepath.Dir(w.store.Path())
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return &db.Error{Op: db.OpWatch, Err: fmt.Errorf("watch %s: %w", dir, err)}
	}
	w.fsWatcher = fsw

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	target := filepath.Clean(w.store.Path())
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("source watcher error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	snap, changed, err := w.store.Changed(context.Background())
	if err != nil {
		w.logger.Error("failed to reload source", zap.String("path", w.store.Path()), zap.Error(err))
		return
	}
	if !changed {
		return
	}
	w.logger.Info("source changed, reloading", zap.String("path", w.store.Path()))
	w.onChange(snap)
}
