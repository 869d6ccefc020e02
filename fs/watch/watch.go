// Package watch provides a polling change watcher over core.Storage.
//
// The watcher periodically walks a tree, compares it with the previous
// snapshot and reports created or modified files with their fresh stat,
// and deleted files with a nil stat. It works with every backend,
// including object stores that have no native notification mechanism.
package watch

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tobimo/brackets/fs/core"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 5 * time.Second

// Sink receives change notifications. A nil stat means the path is gone.
type Sink interface {
	HandleExternalChange(path string, stat *core.Stat)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(path string, stat *core.Stat)

// HandleExternalChange calls f.
func (f SinkFunc) HandleExternalChange(path string, stat *core.Stat) {
	f(path, stat)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for poll failures.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher polls a storage tree for changes.
type Watcher struct {
	storage  core.Storage
	root     string
	interval time.Duration
	sink     Sink
	logger   *zap.Logger

	mu      sync.Mutex
	state   map[string]core.Stat // path -> listing stat
	primed  bool
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
	started bool
}

// New creates a watcher for the tree below root.
func New(storage core.Storage, root string, interval time.Duration, sink Sink, opts ...Option) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	w := &Watcher{
		storage:  storage,
		root:     path.Clean("/" + root),
		interval: interval,
		sink:     sink,
		logger:   zap.NewNop(),
		state:    make(map[string]core.Stat),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start takes the initial snapshot and begins polling in the background
// until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.Poll(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops polling and waits for the loop to exit. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stop.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.logger.Warn("poll failed", zap.String("root", w.root), zap.Error(err))
			}
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Poll walks the tree once and reports differences from the previous
// snapshot. The first call only records the baseline. The sink is called
// after the snapshot lock is released, so it may call Poll itself; it must
// not call Stop.
func (w *Watcher) Poll(ctx context.Context) error {
	changed, deleted, err := w.diff(ctx)
	if err != nil {
		return err
	}

	for _, p := range changed {
		// Listing stats may omit the content hash; report the full stat.
		stat, err := w.storage.Stat(ctx, p)
		if err != nil {
			w.logger.Debug("stat after change failed", zap.String("path", p), zap.Error(err))
			continue
		}
		w.sink.HandleExternalChange(p, &stat)
	}
	for _, p := range deleted {
		w.sink.HandleExternalChange(p, nil)
	}
	return nil
}

// diff takes a new snapshot and returns the sorted paths that were
// created or modified, and those that disappeared.
func (w *Watcher) diff(ctx context.Context) (changed, deleted []string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]core.Stat, len(w.state))
	if err := w.walk(ctx, w.root, current); err != nil {
		return nil, nil, err
	}

	if !w.primed {
		w.state = current
		w.primed = true
		return nil, nil, nil
	}

	for p, stat := range current {
		old, exists := w.state[p]
		if !exists || !old.Equal(stat) {
			changed = append(changed, p)
		}
	}
	for p := range w.state {
		if _, exists := current[p]; !exists {
			deleted = append(deleted, p)
		}
	}
	w.state = current
	sort.Strings(changed)
	sort.Strings(deleted)
	return changed, deleted, nil
}

func (w *Watcher) walk(ctx context.Context, dir string, out map[string]core.Stat) error {
	entries, err := w.storage.ReadDir(ctx, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := path.Join(dir, e.Name)
		if e.Stat.IsDir {
			if err := w.walk(ctx, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = e.Stat
	}
	return nil
}
