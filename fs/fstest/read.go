package fstest

import (
	"context"
	"testing"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
)

// TestRead tests ReadFile, Stat and ReadDir.
func TestRead(t *testing.T, storage core.Storage, config Config) {
	ctx := context.Background()
	const content = "test file content"
	written := mustWrite(t, storage, "/testdir/testfile.txt", content)
	mustWrite(t, storage, "/testdir/other.txt", "other")
	mustWrite(t, storage, "/testdir/sub/nested.txt", "nested")

	run(t, config, "Read", "ReadFile", func(t *testing.T) {
		text, stat, err := storage.ReadFile(ctx, "/testdir/testfile.txt", core.ReadOptions{})
		if err != nil {
			t.Fatalf("ReadFile(): got error %v, want nil", err)
		}
		if text != content {
			t.Errorf("ReadFile(): got %q, want %q", text, content)
		}
		if stat.Size != int64(len(content)) {
			t.Errorf("ReadFile(): stat size %d, want %d", stat.Size, len(content))
		}
		if stat.IsDir {
			t.Error("ReadFile(): stat.IsDir = true, want false")
		}
	})

	run(t, config, "Read", "StatMatchesWrite", func(t *testing.T) {
		_, stat, err := storage.ReadFile(ctx, "/testdir/testfile.txt", core.ReadOptions{})
		if err != nil {
			t.Fatalf("ReadFile(): got error %v", err)
		}
		if !stat.Equal(written) {
			t.Errorf("ReadFile() stat = %v, want stat returned by WriteFile %v", stat, written)
		}
		fresh, err := storage.Stat(ctx, "/testdir/testfile.txt")
		if err != nil {
			t.Fatalf("Stat(): got error %v", err)
		}
		if !fresh.Equal(written) {
			t.Errorf("Stat() = %v, want %v", fresh, written)
		}
	})

	run(t, config, "Read", "ReadFileNotExist", func(t *testing.T) {
		text, stat, err := storage.ReadFile(ctx, "/testdir/missing.txt", core.ReadOptions{})
		if got := errors.GetCode(err); got != errors.CodeNotFound {
			t.Errorf("ReadFile(missing): got code %q (%v), want %q", got, err, errors.CodeNotFound)
		}
		if text != "" || !stat.IsZero() {
			t.Errorf("ReadFile(missing): got (%q, %v), want zero values", text, stat)
		}
	})

	run(t, config, "Read", "StatDir", func(t *testing.T) {
		stat, err := storage.Stat(ctx, "/testdir")
		if err != nil {
			t.Fatalf("Stat(dir): got error %v", err)
		}
		if !stat.IsDir {
			t.Error("Stat(dir): IsDir = false, want true")
		}
	})

	run(t, config, "Read", "StatNotExist", func(t *testing.T) {
		_, err := storage.Stat(ctx, "/nope")
		if got := errors.GetCode(err); got != errors.CodeNotFound {
			t.Errorf("Stat(missing): got code %q (%v), want %q", got, err, errors.CodeNotFound)
		}
	})

	run(t, config, "Read", "ReadDir", func(t *testing.T) {
		entries, err := storage.ReadDir(ctx, "/testdir")
		if err != nil {
			t.Fatalf("ReadDir(): got error %v", err)
		}
		want := []struct {
			name  string
			isDir bool
		}{
			{"other.txt", false},
			{"sub", true},
			{"testfile.txt", false},
		}
		if len(entries) != len(want) {
			t.Fatalf("ReadDir(): got %d entries %v, want %d", len(entries), entries, len(want))
		}
		for i, w := range want {
			if entries[i].Name != w.name || entries[i].Stat.IsDir != w.isDir {
				t.Errorf("ReadDir()[%d] = {%q dir=%v}, want {%q dir=%v}",
					i, entries[i].Name, entries[i].Stat.IsDir, w.name, w.isDir)
			}
		}
	})
}
