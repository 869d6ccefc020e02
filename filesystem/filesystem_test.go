package filesystem

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/billy"
	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/watch"
)

type eventLog struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (l *eventLog) record(ev ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ChangeEvent(nil), l.events...)
}

func listen(fsys *FileSystem) *eventLog {
	log := &eventLog{}
	fsys.OnChange(log.record)
	return log
}

func TestFileSystem_Handles(t *testing.T) {
	fsys := New(billy.NewMemory())

	t.Run("one handle per path", func(t *testing.T) {
		a := fsys.FileForPath("/dir/a.txt")
		assert.Same(t, a, fsys.FileForPath("dir//a.txt"))
		assert.Same(t, a, fsys.FileForPath(`\dir\sub\..\a.txt`))
		assert.Equal(t, "/dir/a.txt", a.Path())
		assert.Equal(t, "a.txt", a.Name())
		assert.Same(t, fsys, a.FileSystem())
	})

	t.Run("kinds", func(t *testing.T) {
		f := fsys.FileForPath("/k.txt")
		d := fsys.DirectoryForPath("/kdir")

		assert.True(t, f.IsFile())
		assert.False(t, f.IsDirectory())
		assert.Equal(t, KindFile, f.Kind())
		assert.True(t, d.IsDirectory())
		assert.False(t, d.IsFile())
		assert.Equal(t, "directory", d.Kind().String())
		assert.Equal(t, "/kdir/", d.Path())
		assert.Equal(t, "kdir", d.Name())
		assert.Equal(t, "/", fsys.DirectoryForPath("").Path())
	})

	t.Run("kind change replaces handle", func(t *testing.T) {
		f := fsys.FileForPath("/swap")
		d := fsys.DirectoryForPath("/swap")

		assert.False(t, f.IsValid())
		assert.True(t, d.IsValid())
		assert.NotSame(t, f, fsys.FileForPath("/swap"))
		assert.False(t, d.IsValid())
	})
}

func TestFileSystem_Resolve(t *testing.T) {
	ctx := context.Background()
	storage := billy.NewMemory()
	fsys := New(storage)
	_, err := storage.MkdirAll(ctx, "/dir")
	require.NoError(t, err)

	written, err := fsys.FileForPath("/dir/a.txt").Write(ctx, "hello")
	require.NoError(t, err)

	e, stat, err := fsys.Resolve(ctx, "/dir/a.txt")
	require.NoError(t, err)
	assert.True(t, e.IsFile())
	assert.True(t, written.Equal(stat))
	cached, ok := e.Stat()
	require.True(t, ok)
	assert.True(t, written.Equal(cached))

	e, stat, err = fsys.Resolve(ctx, "/dir")
	require.NoError(t, err)
	assert.True(t, e.IsDirectory())
	assert.True(t, stat.IsDir)
	assert.Equal(t, "/dir/", e.Path())

	_, _, err = fsys.Resolve(ctx, "/missing")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestFileSystem_WriteCreatesParentsViaDirectory(t *testing.T) {
	ctx := context.Background()
	fsys := New(billy.NewMemory())

	stat, err := fsys.DirectoryForPath("/a/b").Create(ctx)
	require.NoError(t, err)
	assert.True(t, stat.IsDir)

	_, err = fsys.FileForPath("/a/b/c.txt").Write(ctx, "c")
	require.NoError(t, err)
	_, err = fsys.FileForPath("/a/d.txt").Write(ctx, "dd")
	require.NoError(t, err)

	contents, err := fsys.DirectoryForPath("/a").Contents(ctx)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "/a/b/", contents[0].Path())
	assert.True(t, contents[0].IsDirectory())
	assert.Equal(t, "/a/d.txt", contents[1].Path())
	assert.Same(t, fsys.FileForPath("/a/d.txt"), contents[1])
}

func TestEntry_RefreshStat(t *testing.T) {
	ctx := context.Background()
	storage := billy.NewMemory()
	fsys := New(storage)

	f := fsys.FileForPath("/a.txt")
	_, err := f.RefreshStat(ctx)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	_, ok := f.Stat()
	assert.False(t, ok)

	written, err := storage.WriteFile(ctx, "/a.txt", "abc", core.WriteOptions{})
	require.NoError(t, err)

	stat, err := f.RefreshStat(ctx)
	require.NoError(t, err)
	assert.True(t, written.Equal(stat))
	cached, ok := f.Stat()
	require.True(t, ok)
	assert.True(t, written.Equal(cached))
}

func TestFileSystem_Rename(t *testing.T) {
	ctx := context.Background()
	fsys := New(billy.NewMemory())
	log := listen(fsys)

	_, err := fsys.DirectoryForPath("/src").Create(ctx)
	require.NoError(t, err)
	f := fsys.FileForPath("/src/a.txt")
	_, err = f.Write(ctx, "a")
	require.NoError(t, err)
	dir := fsys.DirectoryForPath("/src")

	require.NoError(t, dir.Rename(ctx, "/dst"))

	assert.Equal(t, "/dst/", dir.Path())
	assert.Equal(t, "/dst/a.txt", f.Path())
	assert.True(t, f.IsValid())
	assert.Same(t, f, fsys.FileForPath("/dst/a.txt"))

	contents, _, err := f.ReadAsText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", contents)

	events := log.all()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeTypeRename, events[0].Type)
	assert.Equal(t, "/src", events[0].OldPath)
	assert.Equal(t, "/dst", events[0].Path)
	assert.Same(t, dir, events[0].Entry)
}

func TestFileSystem_Unlink(t *testing.T) {
	ctx := context.Background()
	fsys := New(billy.NewMemory())
	log := listen(fsys)

	f := fsys.FileForPath("/gone.txt")
	_, err := f.Write(ctx, "bye")
	require.NoError(t, err)

	require.NoError(t, f.Unlink(ctx))
	assert.False(t, f.IsValid())
	_, ok := f.Stat()
	assert.False(t, ok)

	events := log.all()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeTypeDelete, events[0].Type)
	assert.Same(t, f, events[0].Entry)

	err = fsys.Unlink(ctx, "/gone.txt")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestFileSystem_ExternalChange(t *testing.T) {
	t.Run("echo of own write is dropped", func(t *testing.T) {
		ctx := context.Background()
		fsys := New(billy.NewMemory())
		log := listen(fsys)

		stat, err := fsys.FileForPath("/a.txt").Write(ctx, "mine")
		require.NoError(t, err)

		fsys.HandleExternalChange("/a.txt", &stat)
		assert.Empty(t, log.all())
	})

	t.Run("foreign change clears stat and fires", func(t *testing.T) {
		fsys := New(billy.NewMemory())
		log := listen(fsys)
		f := fsys.FileForPath("/a.txt")
		f.setStat(statA)

		fsys.HandleExternalChange("/a.txt", &statB)

		_, ok := f.Stat()
		assert.False(t, ok)
		events := log.all()
		require.Len(t, events, 1)
		assert.Equal(t, ChangeTypeChange, events[0].Type)
		assert.Same(t, f, events[0].Entry)
		assert.Equal(t, statB, *events[0].Stat)
	})

	t.Run("unindexed change fires without entry", func(t *testing.T) {
		fsys := New(billy.NewMemory())
		log := listen(fsys)

		fsys.HandleExternalChange("/new.txt", &statA)

		events := log.all()
		require.Len(t, events, 1)
		assert.Nil(t, events[0].Entry)
	})

	t.Run("nil stat evicts", func(t *testing.T) {
		fsys := New(billy.NewMemory())
		log := listen(fsys)
		d := fsys.DirectoryForPath("/d")
		child := fsys.FileForPath("/d/x.txt")

		fsys.HandleExternalChange("/d", nil)

		assert.False(t, d.IsValid())
		assert.False(t, child.IsValid())
		events := log.all()
		require.Len(t, events, 1)
		assert.Equal(t, ChangeTypeDelete, events[0].Type)
		assert.Same(t, d, events[0].Entry)
	})

	t.Run("kind change evicts", func(t *testing.T) {
		fsys := New(billy.NewMemory())
		f := fsys.FileForPath("/k")
		f.setStat(statA)

		fsys.HandleExternalChange("/k", &core.Stat{IsDir: true})
		assert.False(t, f.IsValid())
	})

	t.Run("deferred while writing", func(t *testing.T) {
		barrier := NewBarrier(nil)
		fsys := New(billy.NewMemory(), WithBarrier(barrier))
		log := listen(fsys)
		f := fsys.FileForPath("/a.txt")
		f.setStat(statA)

		barrier.BeginWrite()
		fsys.HandleExternalChange("/a.txt", &statB)
		fsys.HandleExternalChange("/b.txt", nil)
		assert.Empty(t, log.all())

		barrier.EndWrite()
		events := log.all()
		require.Len(t, events, 2)
		assert.Equal(t, "/a.txt", events[0].Path)
		assert.Equal(t, "/b.txt", events[1].Path)
	})

	t.Run("deferred echo is dropped after write completes", func(t *testing.T) {
		ctx := context.Background()
		storage := billy.NewMemory()
		fsys := New(storage)
		log := listen(fsys)
		f := fsys.FileForPath("/a.txt")

		barrier := fsys.Barrier().(*Barrier)
		barrier.BeginWrite()
		stat, err := f.Write(ctx, "content")
		require.NoError(t, err)
		fsys.HandleExternalChange("/a.txt", &stat)
		barrier.EndWrite()

		assert.Empty(t, log.all())
	})

	t.Run("fake barrier never defers", func(t *testing.T) {
		barrier := &fakeBarrier{}
		fsys := New(billy.NewMemory(), WithBarrier(barrier))
		log := listen(fsys)

		barrier.BeginWrite()
		fsys.HandleExternalChange("/a.txt", &statA)
		assert.Len(t, log.all(), 1)
		barrier.EndWrite()
	})
}

func TestFileSystem_OnChange(t *testing.T) {
	fsys := New(billy.NewMemory())

	var calls int
	unsubscribe := fsys.OnChange(func(ChangeEvent) { calls++ })
	fsys.OnChange(func(ChangeEvent) { panic("listener bug") })

	assert.NotPanics(t, func() {
		fsys.HandleExternalChange("/a.txt", &statA)
	})
	assert.Equal(t, 1, calls)

	unsubscribe()
	fsys.HandleExternalChange("/a.txt", &statB)
	assert.Equal(t, 1, calls)
}

func TestFileSystem_Watcher(t *testing.T) {
	ctx := context.Background()
	storage := billy.NewMemory()
	fsys := New(storage)
	log := listen(fsys)

	f := fsys.FileForPath("/a.txt")
	_, err := f.Write(ctx, "v1")
	require.NoError(t, err)

	w := watch.New(storage, "/", time.Hour, fsys)
	require.NoError(t, w.Poll(ctx))

	// Own write: the reported stat matches the cached one.
	_, err = f.Write(ctx, "version 2")
	require.NoError(t, err)
	require.NoError(t, w.Poll(ctx))
	assert.Empty(t, log.all())

	// Foreign write straight to storage.
	_, err = storage.WriteFile(ctx, "/a.txt", "someone else", core.WriteOptions{})
	require.NoError(t, err)
	require.NoError(t, w.Poll(ctx))

	events := log.all()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeTypeChange, events[0].Type)
	assert.Same(t, f, events[0].Entry)
	_, ok := f.Stat()
	assert.False(t, ok)
}

func TestFileSystem_WithWatcher(t *testing.T) {
	ctx := context.Background()
	storage := billy.NewMemory()
	_, err := storage.WriteFile(ctx, "/seed.txt", "x", core.WriteOptions{})
	require.NoError(t, err)

	fsys := New(storage, WithWatcher("/", 10*time.Millisecond))
	defer func() {
		require.NoError(t, fsys.Close())
	}()

	changes := make(chan ChangeEvent, 10)
	fsys.OnChange(func(ev ChangeEvent) { changes <- ev })

	_, err = storage.WriteFile(ctx, "/external.txt", "y", core.WriteOptions{})
	require.NoError(t, err)

	select {
	case ev := <-changes:
		assert.Equal(t, "/external.txt", ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for watcher event")
	}
}

func TestFileSystem_WatcherOwnMutations(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*FileSystem, core.Storage, *watch.Watcher, *eventLog) {
		storage := billy.NewMemory()
		fsys := New(storage)
		return fsys, storage, watch.New(storage, "/", time.Hour, fsys), listen(fsys)
	}

	t.Run("unlink file", func(t *testing.T) {
		fsys, _, w, log := setup(t)
		f := fsys.FileForPath("/a.txt")
		_, err := f.Write(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))

		require.NoError(t, f.Unlink(ctx))
		require.NoError(t, w.Poll(ctx))

		events := log.all()
		require.Len(t, events, 1)
		assert.Equal(t, ChangeTypeDelete, events[0].Type)
		assert.Same(t, f, events[0].Entry)
	})

	t.Run("rename file", func(t *testing.T) {
		fsys, _, w, log := setup(t)
		f := fsys.FileForPath("/a.txt")
		_, err := f.Write(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))

		require.NoError(t, f.Rename(ctx, "/b.txt"))
		require.NoError(t, w.Poll(ctx))

		events := log.all()
		require.Len(t, events, 1)
		assert.Equal(t, ChangeTypeRename, events[0].Type)
		assert.Equal(t, "/b.txt", events[0].Path)
		_, ok := f.Stat()
		assert.True(t, ok, "moved handle keeps a stat")
	})

	t.Run("rename unindexed file", func(t *testing.T) {
		fsys, storage, w, log := setup(t)
		_, err := storage.WriteFile(ctx, "/raw.txt", "raw", core.WriteOptions{})
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))

		require.NoError(t, fsys.Rename(ctx, "/raw.txt", "/moved.txt"))
		require.NoError(t, w.Poll(ctx))

		events := log.all()
		require.Len(t, events, 1)
		assert.Equal(t, ChangeTypeRename, events[0].Type)
		assert.Nil(t, events[0].Entry)
	})

	t.Run("rename directory", func(t *testing.T) {
		fsys, storage, w, log := setup(t)
		_, err := storage.MkdirAll(ctx, "/src/sub")
		require.NoError(t, err)
		_, err = storage.WriteFile(ctx, "/src/x.txt", "x", core.WriteOptions{})
		require.NoError(t, err)
		_, err = storage.WriteFile(ctx, "/src/sub/y.txt", "y", core.WriteOptions{})
		require.NoError(t, err)
		indexed := fsys.FileForPath("/src/x.txt")
		require.NoError(t, w.Poll(ctx))

		require.NoError(t, fsys.Rename(ctx, "/src", "/dst"))
		require.NoError(t, w.Poll(ctx))

		events := log.all()
		require.Len(t, events, 1)
		assert.Equal(t, ChangeTypeRename, events[0].Type)
		assert.Equal(t, "/dst/x.txt", indexed.Path())
	})

	t.Run("unlink directory then foreign changes", func(t *testing.T) {
		fsys, storage, w, log := setup(t)
		_, err := storage.MkdirAll(ctx, "/d")
		require.NoError(t, err)
		_, err = storage.WriteFile(ctx, "/d/x.txt", "x", core.WriteOptions{})
		require.NoError(t, err)
		_, err = storage.WriteFile(ctx, "/d/y.txt", "y", core.WriteOptions{})
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))

		require.NoError(t, fsys.Unlink(ctx, "/d"))
		require.NoError(t, w.Poll(ctx))
		require.Len(t, log.all(), 1)

		// Someone else recreates and removes the tree: both are reported.
		_, err = storage.MkdirAll(ctx, "/d")
		require.NoError(t, err)
		_, err = storage.WriteFile(ctx, "/d/z.txt", "z", core.WriteOptions{})
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))
		require.NoError(t, storage.Remove(ctx, "/d"))
		require.NoError(t, w.Poll(ctx))

		events := log.all()
		require.Len(t, events, 3)
		assert.Equal(t, ChangeTypeChange, events[1].Type)
		assert.Equal(t, "/d/z.txt", events[1].Path)
		assert.Equal(t, ChangeTypeDelete, events[2].Type)
		assert.Equal(t, "/d/z.txt", events[2].Path)
	})

	t.Run("foreign delete after own unlink and recreate", func(t *testing.T) {
		fsys, storage, w, log := setup(t)
		_, err := fsys.FileForPath("/a.txt").Write(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))
		require.NoError(t, fsys.Unlink(ctx, "/a.txt"))
		require.NoError(t, w.Poll(ctx))

		_, err = storage.WriteFile(ctx, "/a.txt", "again", core.WriteOptions{})
		require.NoError(t, err)
		require.NoError(t, w.Poll(ctx))
		require.NoError(t, storage.Remove(ctx, "/a.txt"))
		require.NoError(t, w.Poll(ctx))

		events := log.all()
		require.Len(t, events, 3)
		assert.Equal(t, ChangeTypeChange, events[1].Type)
		assert.Equal(t, ChangeTypeDelete, events[2].Type)
	})
}

func TestFileSystem_ConcurrentHandles(t *testing.T) {
	ctx := context.Background()
	fsys := New(billy.NewMemory())
	_, err := fsys.DirectoryForPath("/c").Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := fsys.FileForPath(fmt.Sprintf("/c/%d.txt", i))
			for r := 0; r < 20; r++ {
				want := fmt.Sprintf("%d-%d", i, r)
				if _, err := f.Write(ctx, want); !assert.NoError(t, err) {
					return
				}
				got, _, err := f.ReadAsText(ctx)
				if !assert.NoError(t, err) || !assert.Equal(t, want, got) {
					return
				}
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := 0; r < 20; r++ {
			_, err := fsys.DirectoryForPath("/c").Contents(ctx)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	entries, err := fsys.DirectoryForPath("/c").Contents(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
	assert.Equal(t, 0, fsys.Barrier().(*Barrier).Active())
}
