package filesystem

import (
	"context"

	"github.com/tobimo/brackets/fs/core"
)

// Directory is a handle to a directory. Its path always ends in "/".
type Directory struct {
	entry
}

func newDirectory(fs *FileSystem, p string) *Directory {
	d := &Directory{}
	d.init(fs, KindDirectory, p)
	return d
}

// Contents lists the directory and returns a handle for every child,
// ordered by name. Child stats reported by the listing are cached unless
// they lack a content hash, since an incomplete snapshot would never
// match a later change notification.
func (d *Directory) Contents(ctx context.Context) ([]Entry, error) {
	listing, err := d.fs.storage.ReadDir(ctx, storageName(d.Path()))
	if err != nil {
		return nil, err
	}

	dir := d.Path()
	entries := make([]Entry, 0, len(listing))
	for _, child := range listing {
		var e Entry
		if child.Stat.IsDir {
			e = d.fs.DirectoryForPath(dir + child.Name)
		} else {
			e = d.fs.FileForPath(dir + child.Name)
		}
		if child.Stat.IsDir || child.Stat.Hash != "" {
			base(e).setStat(child.Stat)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Create creates the directory and any missing parents.
func (d *Directory) Create(ctx context.Context) (core.Stat, error) {
	d.fs.barrier.BeginWrite()
	defer d.fs.barrier.EndWrite()

	stat, err := d.fs.storage.MkdirAll(ctx, storageName(d.Path()))
	if err != nil {
		return core.Stat{}, err
	}
	d.setStat(stat)
	return stat, nil
}

var _ Entry = (*Directory)(nil)
