package billy

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/textenc"
)

// LocalFS wraps billy's osfs for local disk storage.
type LocalFS struct {
	storage
}

// MemoryFS wraps billy's memfs for in-memory storage.
type MemoryFS struct {
	storage
}

// Option configures storage creation.
type Option func(*config)

type config struct {
	defaultEncoding string
}

// WithDefaultEncoding sets the encoding applied when a read or write does
// not name one. The default is core.DefaultEncoding.
func WithDefaultEncoding(name string) Option {
	return func(c *config) {
		c.defaultEncoding = name
	}
}

func newConfig(opts []Option) config {
	cfg := config{defaultEncoding: core.DefaultEncoding}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewLocal creates a go-billy-backed local storage rooted at root.
// Storage paths are resolved relative to root, so "/a.txt" names
// root/a.txt.
func NewLocal(root string, opts ...Option) *LocalFS {
	return &LocalFS{storage: storage{
		bfs:             osfs.New(root),
		defaultEncoding: newConfig(opts).defaultEncoding,
	}}
}

// NewMemory creates a go-billy-backed in-memory storage.
// The storage is initially empty.
func NewMemory(opts ...Option) *MemoryFS {
	return &MemoryFS{storage: storage{
		bfs:             memfs.New(),
		defaultEncoding: newConfig(opts).defaultEncoding,
	}}
}

// Type returns FSTypeLocal.
func (lfs *LocalFS) Type() core.FSType {
	return core.FSTypeLocal
}

// Type returns FSTypeMemory.
func (mfs *MemoryFS) Type() core.FSType {
	return core.FSTypeMemory
}

// storage holds the implementation shared by LocalFS and MemoryFS.
// billy's memfs has no locking of its own, so every call into bfs goes
// through mu: mutations take the write lock, lookups the read lock.
type storage struct {
	mu              sync.RWMutex
	bfs             billy.Filesystem
	defaultEncoding string
}

// Unwrap returns the underlying billy.Filesystem. Calls made on it
// directly bypass the storage lock.
func (s *storage) Unwrap() billy.Filesystem {
	return s.bfs
}

// normalize converts storage paths to the slash-separated form billy
// expects. The root is "/".
func normalize(name string) string {
	name = filepath.ToSlash(name)
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name)
}

func (s *storage) encoding(name string) string {
	if name == "" {
		return s.defaultEncoding
	}
	return name
}

func toStat(info os.FileInfo, hash string) core.Stat {
	if info.IsDir() {
		return core.Stat{ModTime: info.ModTime(), IsDir: true}
	}
	return core.Stat{Size: info.Size(), ModTime: info.ModTime(), Hash: hash}
}

// ReadFile reads the named file and decodes it as text.
func (s *storage) ReadFile(ctx context.Context, name string, opts core.ReadOptions) (string, core.Stat, error) {
	if err := ctx.Err(); err != nil {
		return "", core.Stat{}, err
	}
	name = normalize(name)
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.bfs.Stat(name)
	if err != nil {
		return "", core.Stat{}, errors.FromFS(err, "read", name)
	}
	if info.IsDir() {
		return "", core.Stat{}, errors.Newf(errors.CodeInvalidParams, "read %s: is a directory", name)
	}

	data, err := readBytes(s.bfs, name)
	if err != nil {
		return "", core.Stat{}, errors.FromFS(err, "read", name)
	}

	text, err := textenc.Decode(s.encoding(opts.Encoding), data)
	if err != nil {
		return "", core.Stat{}, errors.WithContext(err, "path", name)
	}

	// Stat again: the file may have changed between the first Stat and the read.
	if info, err = s.bfs.Stat(name); err != nil {
		return "", core.Stat{}, errors.FromFS(err, "read", name)
	}

	return text, toStat(info, contentHash(data)), nil
}

// WriteFile encodes data and replaces the contents of the named file.
// The parent directory must exist.
func (s *storage) WriteFile(ctx context.Context, name string, data string, opts core.WriteOptions) (core.Stat, error) {
	if err := ctx.Err(); err != nil {
		return core.Stat{}, err
	}
	name = normalize(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := textenc.Encode(s.encoding(opts.Encoding), data)
	if err != nil {
		return core.Stat{}, errors.WithContext(err, "path", name)
	}

	if dir := path.Dir(name); dir != "/" {
		parent, err := s.bfs.Stat(dir)
		if err != nil {
			return core.Stat{}, errors.FromFS(err, "write", name)
		}
		if !parent.IsDir() {
			return core.Stat{}, errors.Newf(errors.CodeInvalidParams, "write %s: parent is not a directory", name)
		}
	}
	if info, err := s.bfs.Stat(name); err == nil && info.IsDir() {
		return core.Stat{}, errors.Newf(errors.CodeInvalidParams, "write %s: is a directory", name)
	}

	if err := writeBytes(s.bfs, name, raw); err != nil {
		return core.Stat{}, errors.FromFS(err, "write", name)
	}

	info, err := s.bfs.Stat(name)
	if err != nil {
		return core.Stat{}, errors.FromFS(err, "write", name)
	}
	return toStat(info, contentHash(raw)), nil
}

// Stat returns a fresh snapshot. For files the contents are read to
// compute the hash.
func (s *storage) Stat(ctx context.Context, name string) (core.Stat, error) {
	if err := ctx.Err(); err != nil {
		return core.Stat{}, err
	}
	name = normalize(name)
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.bfs.Stat(name)
	if err != nil {
		return core.Stat{}, errors.FromFS(err, "stat", name)
	}
	if info.IsDir() {
		return toStat(info, ""), nil
	}

	data, err := readBytes(s.bfs, name)
	if err != nil {
		return core.Stat{}, errors.FromFS(err, "stat", name)
	}
	return toStat(info, contentHash(data)), nil
}

// ReadDir lists the children of a directory sorted by name. Child stats
// come from the directory listing and carry no Hash.
func (s *storage) ReadDir(ctx context.Context, name string) ([]core.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = normalize(name)
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos, err := s.bfs.ReadDir(name)
	if err != nil {
		return nil, errors.FromFS(err, "readdir", name)
	}

	entries := make([]core.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, core.DirEntry{Name: info.Name(), Stat: toStat(info, "")})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// MkdirAll creates a directory named name, along with any necessary parents.
func (s *storage) MkdirAll(ctx context.Context, name string) (core.Stat, error) {
	if err := ctx.Err(); err != nil {
		return core.Stat{}, err
	}
	name = normalize(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bfs.MkdirAll(name, 0o755); err != nil {
		return core.Stat{}, errors.FromFS(err, "mkdir", name)
	}
	info, err := s.bfs.Stat(name)
	if err != nil {
		return core.Stat{}, errors.FromFS(err, "mkdir", name)
	}
	if !info.IsDir() {
		return core.Stat{}, errors.Newf(errors.CodeAlreadyExists, "mkdir %s: a file exists at this path", name)
	}
	return toStat(info, ""), nil
}

// Rename renames (moves) oldpath to newpath.
func (s *storage) Rename(ctx context.Context, oldpath, newpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	oldpath, newpath = normalize(oldpath), normalize(newpath)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.bfs.Stat(oldpath); err != nil {
		return errors.FromFS(err, "rename", oldpath)
	}
	if err := s.bfs.Rename(oldpath, newpath); err != nil {
		return errors.FromFS(err, "rename", oldpath)
	}
	return nil
}

// Remove removes the named file, or the named directory and any children
// it contains.
func (s *storage) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = normalize(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.bfs.Stat(name)
	if err != nil {
		return errors.FromFS(err, "remove", name)
	}
	if err := s.removeAll(name, info); err != nil {
		return errors.FromFS(err, "remove", name)
	}
	return nil
}

func (s *storage) removeAll(name string, info os.FileInfo) error {
	if !info.IsDir() {
		return s.bfs.Remove(name)
	}

	// Billy doesn't have RemoveAll, remove children first
	children, err := s.bfs.ReadDir(name)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.removeAll(path.Join(name, child.Name()), child); err != nil {
			return err
		}
	}

	if name == "/" {
		return nil
	}
	return s.bfs.Remove(name)
}

// Compile-time interface checks.
var (
	_ core.Storage = (*LocalFS)(nil)
	_ core.Storage = (*MemoryFS)(nil)
)
