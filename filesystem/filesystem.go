package filesystem

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/watch"
	"github.com/tobimo/brackets/logging"
	"github.com/tobimo/brackets/metrics"
)

// Option configures a FileSystem.
type Option func(*FileSystem)

// WithLogger sets the logger. Default: no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(fs *FileSystem) {
		fs.logger = logging.OrNop(logger)
	}
}

// WithMetrics sets the metrics collector. Default: none.
func WithMetrics(m *metrics.Collector) Option {
	return func(fs *FileSystem) {
		fs.metrics = m
	}
}

// WithBarrier replaces the write barrier. Change events are only deferred
// behind barriers that also provide Active and OnDrain, like *Barrier.
func WithBarrier(b WriteBarrier) Option {
	return func(fs *FileSystem) {
		fs.barrier = b
	}
}

// WithWatcher attaches a polling watcher for the tree below root. It is
// started by New and stopped by Close.
func WithWatcher(root string, interval time.Duration) Option {
	return func(fs *FileSystem) {
		fs.watchRoot = root
		fs.watchInterval = interval
		fs.watchEnabled = true
	}
}

// FileSystem is the registry of entry handles over one storage. It hands
// out at most one handle per path, owns the write barrier and delivers
// change events.
type FileSystem struct {
	storage core.Storage
	barrier WriteBarrier
	logger  *zap.Logger
	metrics *metrics.Collector

	mu        sync.Mutex
	index     map[string]Entry
	deferred  []pendingChange
	listeners []listener
	nextID    int

	// removed holds roots deleted or renamed away by this registry. A
	// delete report at or below one, for a path with no handle, is our
	// own echo.
	removed map[string]struct{}
	// expected holds the stats our own renames left at unindexed paths.
	expected map[string]core.Stat

	watchEnabled  bool
	watchRoot     string
	watchInterval time.Duration
	watcher       *watch.Watcher
	cancelWatch   context.CancelFunc
}

// New creates a registry over storage.
func New(storage core.Storage, opts ...Option) *FileSystem {
	fs := &FileSystem{
		storage: storage,
		logger:  zap.NewNop(),
		index:    make(map[string]Entry),
		removed:  make(map[string]struct{}),
		expected: make(map[string]core.Stat),
	}
	for _, opt := range opts {
		opt(fs)
	}
	if fs.barrier == nil {
		fs.barrier = NewBarrier(fs.metrics)
	}
	if d, ok := fs.barrier.(drainer); ok {
		d.OnDrain(fs.flushDeferred)
	}

	if fs.watchEnabled {
		ctx, cancel := context.WithCancel(context.Background())
		fs.cancelWatch = cancel
		fs.watcher = watch.New(storage, fs.watchRoot, fs.watchInterval, fs, watch.WithLogger(fs.logger))
		if err := fs.watcher.Start(ctx); err != nil {
			fs.logger.Warn("initial watch scan failed", zap.String("root", fs.watchRoot), zap.Error(err))
		}
	}
	return fs
}

// Storage returns the underlying storage.
func (fs *FileSystem) Storage() core.Storage {
	return fs.storage
}

// Barrier returns the write barrier shared by all handles.
func (fs *FileSystem) Barrier() WriteBarrier {
	return fs.barrier
}

// Close stops the attached watcher, if any. It waits for an in-progress
// poll, so it must not be called from a change listener.
func (fs *FileSystem) Close() error {
	if fs.watcher != nil {
		fs.cancelWatch()
		fs.watcher.Stop()
	}
	return nil
}

// FileForPath returns the file handle for p, creating and indexing one if
// needed. A directory handle indexed at the same path is evicted.
func (fs *FileSystem) FileForPath(p string) *File {
	p = filePath(p)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if f, ok := fs.index[p].(*File); ok {
		return f
	}
	if p != "/" {
		fs.evictLocked(p + "/")
	}

	f := newFile(fs, p)
	fs.index[p] = f
	fs.metrics.SetHandlesIndexed(len(fs.index))
	return f
}

// DirectoryForPath returns the directory handle for p, creating and
// indexing one if needed. A file handle indexed at the same path is
// evicted.
func (fs *FileSystem) DirectoryForPath(p string) *Directory {
	p = dirPath(p)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if d, ok := fs.index[p].(*Directory); ok {
		return d
	}
	if p != "/" {
		fs.evictLocked(strings.TrimSuffix(p, "/"))
	}

	d := newDirectory(fs, p)
	fs.index[p] = d
	fs.metrics.SetHandlesIndexed(len(fs.index))
	return d
}

// Resolve stats p in storage and returns a handle of the matching kind
// with the stat cached.
func (fs *FileSystem) Resolve(ctx context.Context, p string) (Entry, core.Stat, error) {
	stat, err := fs.storage.Stat(ctx, storageName(filePath(p)))
	if err != nil {
		return nil, core.Stat{}, err
	}

	var e Entry
	if stat.IsDir {
		e = fs.DirectoryForPath(p)
	} else {
		e = fs.FileForPath(p)
	}
	base(e).setStat(stat)
	return e, stat, nil
}

// lookup returns the indexed handle for p, file or directory.
func (fs *FileSystem) lookup(p string) Entry {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = filePath(p)
	if e, ok := fs.index[p]; ok {
		return e
	}
	return fs.index[dirPath(p)]
}

// Rename moves oldPath to newPath in storage and re-keys every indexed
// handle at or below oldPath. Handles already indexed at the destination
// are evicted. Moved handles get fresh stats so the watcher's reports of
// the move are dropped as echoes.
func (fs *FileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = filePath(oldPath), filePath(newPath)

	fs.barrier.BeginWrite()
	defer fs.barrier.EndWrite()

	if err := fs.storage.Rename(ctx, oldPath, newPath); err != nil {
		return err
	}

	fs.mu.Lock()
	var moved Entry
	fs.forgetTreeLocked(newPath)
	fs.forgetTreeLocked(oldPath)
	fs.removed[oldPath] = struct{}{}
	fs.evictTreeLocked(newPath)
	rekeyed := make(map[string]Entry)
	for key, e := range fs.index {
		newKey, ok := rebase(key, oldPath, newPath)
		if !ok {
			continue
		}
		if key == oldPath || key == dirPath(oldPath) {
			moved = e
		}
		delete(fs.index, key)
		base(e).setPath(newKey)
		rekeyed[newKey] = e
	}
	for key, e := range rekeyed {
		fs.index[key] = e
	}
	fs.mu.Unlock()

	fs.recordEchoes(ctx, newPath)

	fs.logger.Debug("renamed", zap.String("from", oldPath), zap.String("to", newPath))
	fs.emit(ChangeEvent{Type: ChangeTypeRename, Path: newPath, OldPath: oldPath, Entry: moved})
	return nil
}

// Unlink removes p from storage, recursively for directories, and evicts
// every handle at or below it.
func (fs *FileSystem) Unlink(ctx context.Context, p string) error {
	p = filePath(p)

	fs.barrier.BeginWrite()
	defer fs.barrier.EndWrite()

	if err := fs.storage.Remove(ctx, p); err != nil {
		return err
	}

	fs.mu.Lock()
	fs.forgetTreeLocked(p)
	fs.removed[p] = struct{}{}
	removed := fs.evictTreeLocked(p)
	fs.mu.Unlock()

	fs.logger.Debug("unlinked", zap.String("path", p))
	fs.emit(ChangeEvent{Type: ChangeTypeDelete, Path: p, Entry: removed})
	return nil
}

// OnChange registers fn for change events and returns a function that
// unregisters it. Listeners run synchronously on the goroutine that
// caused the event, which may be the watcher's; they must not call Close.
func (fs *FileSystem) OnChange(fn func(ChangeEvent)) (unsubscribe func()) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.nextID++
	id := fs.nextID
	fs.listeners = append(fs.listeners, listener{id: id, fn: fn})

	return func() {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		for i, l := range fs.listeners {
			if l.id == id {
				fs.listeners = append(fs.listeners[:i:i], fs.listeners[i+1:]...)
				return
			}
		}
	}
}

// HandleExternalChange reports a change made outside this registry. A
// nil stat means the path no longer exists.
//
// While writes are in flight the change is queued and delivered, in
// order, once the last write finishes. A change whose stat equals the
// cached stat of the handle is dropped as the echo of our own write, as
// are reports of our own Unlink and Rename.
func (fs *FileSystem) HandleExternalChange(p string, stat *core.Stat) {
	change := pendingChange{path: filePath(p), stat: stat}

	fs.mu.Lock()
	if d, ok := fs.barrier.(drainer); ok && d.Active() > 0 {
		fs.deferred = append(fs.deferred, change)
		fs.mu.Unlock()
		fs.metrics.ChangeDeferred()
		return
	}
	batch := append(fs.deferred, change)
	fs.deferred = nil
	fs.mu.Unlock()

	for _, c := range batch {
		fs.applyChange(c)
	}
}

// flushDeferred runs when the barrier drains.
func (fs *FileSystem) flushDeferred() {
	fs.mu.Lock()
	if d, ok := fs.barrier.(drainer); ok && d.Active() > 0 {
		// A new write started before we got here; the next drain flushes.
		fs.mu.Unlock()
		return
	}
	batch := fs.deferred
	fs.deferred = nil
	fs.mu.Unlock()

	for _, c := range batch {
		fs.applyChange(c)
	}
}

func (fs *FileSystem) applyChange(c pendingChange) {
	if c.stat == nil {
		fs.mu.Lock()
		if fs.ownRemovalLocked(c.path) {
			fs.mu.Unlock()
			fs.suppressed(c.path)
			return
		}
		removed := fs.evictTreeLocked(c.path)
		fs.mu.Unlock()

		fs.emit(ChangeEvent{Type: ChangeTypeDelete, Path: c.path, Entry: removed})
		return
	}

	fs.mu.Lock()
	for root := range fs.removed {
		if within(c.path, root) {
			// The path exists again; later deletes there are not ours.
			delete(fs.removed, root)
		}
	}
	want, isEcho := fs.expected[c.path]
	delete(fs.expected, c.path)
	fs.mu.Unlock()

	e := fs.lookup(c.path)
	if e != nil && e.IsDirectory() != c.stat.IsDir {
		// The path changed kind; the old handle is meaningless.
		fs.mu.Lock()
		fs.evictTreeLocked(c.path)
		fs.mu.Unlock()
		e = nil
	}

	if e == nil && isEcho && want.Equal(*c.stat) {
		fs.suppressed(c.path)
		return
	}
	if e != nil {
		b := base(e)
		if b.cachedStatEquals(*c.stat) {
			fs.suppressed(c.path)
			return
		}
		b.clearStat()
	}

	fs.emit(ChangeEvent{Type: ChangeTypeChange, Path: c.path, Entry: e, Stat: c.stat})
}

func (fs *FileSystem) suppressed(p string) {
	fs.metrics.ChangeSuppressed()
	fs.logger.Debug("suppressed change echo", zap.String("path", p))
}

// ownRemovalLocked reports whether a delete of p is the echo of our own
// Unlink or Rename. A file root is consumed by its echo.
func (fs *FileSystem) ownRemovalLocked(p string) bool {
	if _, ok := fs.index[p]; ok {
		return false
	}
	if _, ok := fs.index[dirPath(p)]; ok {
		return false
	}
	delete(fs.expected, p)
	for root := range fs.removed {
		if within(p, root) {
			if p == root {
				delete(fs.removed, root)
			}
			return true
		}
	}
	return false
}

// forgetTreeLocked drops echo bookkeeping at or below p.
func (fs *FileSystem) forgetTreeLocked(p string) {
	for root := range fs.removed {
		if within(root, p) {
			delete(fs.removed, root)
		}
	}
	for key := range fs.expected {
		if within(key, p) {
			delete(fs.expected, key)
		}
	}
}

// recordEchoes stats everything now at or below p. Indexed handles cache
// the stat; other paths are remembered until the watcher reports them.
func (fs *FileSystem) recordEchoes(ctx context.Context, p string) {
	stat, err := fs.storage.Stat(ctx, p)
	if err != nil {
		fs.logger.Debug("stat after rename failed", zap.String("path", p), zap.Error(err))
		return
	}

	if !stat.IsDir {
		fs.mu.Lock()
		if f, ok := fs.index[p].(*File); ok {
			f.setStat(stat)
		} else {
			fs.expected[p] = stat
		}
		fs.mu.Unlock()
		return
	}

	fs.mu.Lock()
	if d, ok := fs.index[dirPath(p)].(*Directory); ok {
		d.setStat(stat)
	}
	fs.mu.Unlock()

	entries, err := fs.storage.ReadDir(ctx, p)
	if err != nil {
		fs.logger.Debug("list after rename failed", zap.String("path", p), zap.Error(err))
		return
	}
	for _, e := range entries {
		fs.recordEchoes(ctx, path.Join(p, e.Name))
	}
}

// emit delivers ev to a snapshot of the listeners.
func (fs *FileSystem) emit(ev ChangeEvent) {
	fs.mu.Lock()
	listeners := make([]listener, len(fs.listeners))
	copy(listeners, fs.listeners)
	fs.mu.Unlock()

	fs.metrics.ChangeDelivered(string(ev.Type))
	for _, l := range listeners {
		fs.safeCall("change listener", ev.Path, func() { l.fn(ev) })
	}
}

// evictLocked removes the handle indexed at key and marks it stale.
func (fs *FileSystem) evictLocked(key string) Entry {
	e, ok := fs.index[key]
	if !ok {
		return nil
	}
	delete(fs.index, key)
	base(e).invalidate()
	fs.metrics.SetHandlesIndexed(len(fs.index))
	return e
}

// evictTreeLocked evicts the handles at p (file or directory) and every
// handle below it. It returns the handle that was indexed at p itself.
func (fs *FileSystem) evictTreeLocked(p string) Entry {
	var top Entry
	if e := fs.evictLocked(p); e != nil {
		top = e
	}
	dir := dirPath(p)
	if e := fs.evictLocked(dir); e != nil {
		top = e
	}
	for key := range fs.index {
		if strings.HasPrefix(key, dir) {
			fs.evictLocked(key)
		}
	}
	return top
}

// safeCall runs fn and logs any panic as a warning.
func (fs *FileSystem) safeCall(what, p string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			fs.metrics.CallbackPanicked()
			fs.logger.Warn("unhandled panic in callback",
				zap.String("callback", what),
				zap.String("path", p),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

// rebase maps key from below oldPath to below newPath.
func rebase(key, oldPath, newPath string) (string, bool) {
	switch {
	case key == oldPath:
		return newPath, true
	case key == dirPath(oldPath):
		return dirPath(newPath), true
	case strings.HasPrefix(key, dirPath(oldPath)):
		return dirPath(newPath) + strings.TrimPrefix(key, dirPath(oldPath)), true
	default:
		return "", false
	}
}

// within reports whether p is root or lies below it.
func within(p, root string) bool {
	return p == root || strings.HasPrefix(p, dirPath(root))
}
