package fstest

import (
	"context"
	"testing"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
)

// TestWrite tests WriteFile and MkdirAll.
func TestWrite(t *testing.T, storage core.Storage, config Config) {
	ctx := context.Background()

	run(t, config, "Write", "CreateAndRead", func(t *testing.T) {
		stat, err := storage.WriteFile(ctx, "/new.txt", "hello", core.WriteOptions{Encoding: core.DefaultEncoding})
		if err != nil {
			t.Fatalf("WriteFile(): got error %v", err)
		}
		if stat.Size != 5 {
			t.Errorf("WriteFile(): stat size %d, want 5", stat.Size)
		}
		text, _, err := storage.ReadFile(ctx, "/new.txt", core.ReadOptions{})
		if err != nil || text != "hello" {
			t.Errorf("ReadFile(): got (%q, %v), want (%q, nil)", text, err, "hello")
		}
	})

	run(t, config, "Write", "Truncates", func(t *testing.T) {
		first := mustWrite(t, storage, "/trunc.txt", "a much longer first version")
		stat, err := storage.WriteFile(ctx, "/trunc.txt", "short", core.WriteOptions{})
		if err != nil {
			t.Fatalf("WriteFile(): got error %v", err)
		}
		if stat.Size != 5 {
			t.Errorf("WriteFile(): stat size %d, want 5", stat.Size)
		}
		if stat.Equal(first) {
			t.Error("WriteFile(): stat unchanged after rewriting contents")
		}
		text, _, _ := storage.ReadFile(ctx, "/trunc.txt", core.ReadOptions{})
		if text != "short" {
			t.Errorf("ReadFile(): got %q, want %q", text, "short")
		}
	})

	run(t, config, "Write", "SameContentSameHash", func(t *testing.T) {
		a := mustWrite(t, storage, "/hash-a.txt", "identical")
		b := mustWrite(t, storage, "/hash-b.txt", "identical")
		if a.Hash == "" || a.Hash != b.Hash {
			t.Errorf("WriteFile(): hashes %q and %q, want equal and non-empty", a.Hash, b.Hash)
		}
	})

	run(t, config, "Write", "MissingParent", func(t *testing.T) {
		_, err := storage.WriteFile(ctx, "/no/such/dir/file.txt", "x", core.WriteOptions{})
		if config.VirtualDirectories {
			if err != nil {
				t.Errorf("WriteFile(): got error %v, want nil for virtual directories", err)
			}
			return
		}
		if got := errors.GetCode(err); got != errors.CodeNotFound {
			t.Errorf("WriteFile(): got code %q (%v), want %q", got, err, errors.CodeNotFound)
		}
	})

	run(t, config, "Write", "MkdirAll", func(t *testing.T) {
		stat, err := storage.MkdirAll(ctx, "/a/b/c")
		if err != nil {
			t.Fatalf("MkdirAll(): got error %v", err)
		}
		if !stat.IsDir {
			t.Error("MkdirAll(): stat.IsDir = false, want true")
		}
		if config.VirtualDirectories {
			return
		}
		for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
			s, err := storage.Stat(ctx, dir)
			if err != nil || !s.IsDir {
				t.Errorf("Stat(%q): got (%v, %v), want a directory", dir, s, err)
			}
		}
	})
}
