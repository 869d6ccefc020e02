package filesystem

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/tobimo/brackets/fs/core"
)

// EntryKind distinguishes files from directories.
type EntryKind int

const (
	// KindFile marks a *File.
	KindFile EntryKind = iota + 1
	// KindDirectory marks a *Directory.
	KindDirectory
)

// String returns "file" or "directory".
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is the behavior shared by files and directories.
type Entry interface {
	// Path returns the absolute, normalized path. Directory paths end in "/".
	Path() string

	// Name returns the last path element.
	Name() string

	// FileSystem returns the registry that owns the handle.
	FileSystem() *FileSystem

	Kind() EntryKind
	IsFile() bool
	IsDirectory() bool

	// Stat returns the last known snapshot. The second result is false
	// when nothing is cached. The snapshot is advisory and may be stale.
	Stat() (core.Stat, bool)

	// IsValid reports whether the registry still indexes this handle.
	IsValid() bool

	// RefreshStat fetches a fresh snapshot from storage and caches it.
	RefreshStat(ctx context.Context) (core.Stat, error)

	// Rename moves the entry to newPath through the registry.
	Rename(ctx context.Context, newPath string) error

	// Unlink removes the entry (recursively for directories).
	Unlink(ctx context.Context) error
}

// entry holds the state shared by File and Directory.
type entry struct {
	fs   *FileSystem
	kind EntryKind

	mu      sync.RWMutex
	path    string
	stat    core.Stat
	hasStat bool
	valid   bool
}

func (e *entry) init(fs *FileSystem, kind EntryKind, p string) {
	e.fs = fs
	e.kind = kind
	e.path = p
	e.valid = true
}

func (e *entry) Path() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.path
}

func (e *entry) Name() string {
	p := e.Path()
	if p == "/" {
		return ""
	}
	return path.Base(strings.TrimSuffix(p, "/"))
}

func (e *entry) FileSystem() *FileSystem { return e.fs }
func (e *entry) Kind() EntryKind         { return e.kind }
func (e *entry) IsFile() bool            { return e.kind == KindFile }
func (e *entry) IsDirectory() bool       { return e.kind == KindDirectory }

func (e *entry) Stat() (core.Stat, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stat, e.hasStat
}

func (e *entry) IsValid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.valid
}

func (e *entry) RefreshStat(ctx context.Context) (core.Stat, error) {
	stat, err := e.fs.storage.Stat(ctx, storageName(e.Path()))
	if err != nil {
		return core.Stat{}, err
	}
	e.setStat(stat)
	return stat, nil
}

func (e *entry) Rename(ctx context.Context, newPath string) error {
	return e.fs.Rename(ctx, e.Path(), newPath)
}

func (e *entry) Unlink(ctx context.Context) error {
	return e.fs.Unlink(ctx, e.Path())
}

func (e *entry) setStat(stat core.Stat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stat = stat
	e.hasStat = true
}

func (e *entry) clearStat() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stat = core.Stat{}
	e.hasStat = false
}

// cachedStatEquals reports whether stat matches the cached snapshot.
func (e *entry) cachedStatEquals(stat core.Stat) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasStat && e.stat.Equal(stat)
}

func (e *entry) setPath(p string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.path = p
}

// invalidate marks the handle stale after eviction.
func (e *entry) invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.valid = false
	e.stat = core.Stat{}
	e.hasStat = false
}

// base exposes the embedded entry of any handle.
func base(e Entry) *entry {
	switch v := e.(type) {
	case *File:
		return &v.entry
	case *Directory:
		return &v.entry
	default:
		return nil
	}
}

// filePath normalizes p into an absolute slash path without a trailing
// slash.
func filePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean("/" + p)
}

// dirPath normalizes p into an absolute directory path ending in "/".
func dirPath(p string) string {
	p = filePath(p)
	if p == "/" {
		return p
	}
	return p + "/"
}

// storageName converts an entry path into the name passed to storage.
func storageName(p string) string {
	if p == "/" {
		return p
	}
	return strings.TrimSuffix(p, "/")
}
