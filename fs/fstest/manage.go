package fstest

import (
	"context"
	"testing"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
)

// TestManage tests Rename and Remove.
func TestManage(t *testing.T, storage core.Storage, config Config) {
	ctx := context.Background()

	run(t, config, "Manage", "RenameFile", func(t *testing.T) {
		mustWrite(t, storage, "/old.txt", "payload")
		if err := storage.Rename(ctx, "/old.txt", "/new.txt"); err != nil {
			t.Fatalf("Rename(): got error %v", err)
		}
		if _, err := storage.Stat(ctx, "/old.txt"); errors.GetCode(err) != errors.CodeNotFound {
			t.Errorf("Stat(old): got %v, want NotFound", err)
		}
		text, _, err := storage.ReadFile(ctx, "/new.txt", core.ReadOptions{})
		if err != nil || text != "payload" {
			t.Errorf("ReadFile(new): got (%q, %v), want (%q, nil)", text, err, "payload")
		}
	})

	run(t, config, "Manage", "RenameDir", func(t *testing.T) {
		mustWrite(t, storage, "/src/one.txt", "1")
		mustWrite(t, storage, "/src/deep/two.txt", "2")
		if err := storage.Rename(ctx, "/src", "/dst"); err != nil {
			t.Fatalf("Rename(dir): got error %v", err)
		}
		for name, want := range map[string]string{"/dst/one.txt": "1", "/dst/deep/two.txt": "2"} {
			text, _, err := storage.ReadFile(ctx, name, core.ReadOptions{})
			if err != nil || text != want {
				t.Errorf("ReadFile(%q): got (%q, %v), want (%q, nil)", name, text, err, want)
			}
		}
		if _, _, err := storage.ReadFile(ctx, "/src/one.txt", core.ReadOptions{}); errors.GetCode(err) != errors.CodeNotFound {
			t.Errorf("ReadFile(old child): got %v, want NotFound", err)
		}
	})

	run(t, config, "Manage", "RenameNotExist", func(t *testing.T) {
		err := storage.Rename(ctx, "/ghost.txt", "/other.txt")
		if got := errors.GetCode(err); got != errors.CodeNotFound {
			t.Errorf("Rename(missing): got code %q (%v), want %q", got, err, errors.CodeNotFound)
		}
	})

	run(t, config, "Manage", "RemoveFile", func(t *testing.T) {
		mustWrite(t, storage, "/gone.txt", "x")
		if err := storage.Remove(ctx, "/gone.txt"); err != nil {
			t.Fatalf("Remove(): got error %v", err)
		}
		if _, err := storage.Stat(ctx, "/gone.txt"); errors.GetCode(err) != errors.CodeNotFound {
			t.Errorf("Stat(removed): got %v, want NotFound", err)
		}
	})

	run(t, config, "Manage", "RemoveDir", func(t *testing.T) {
		mustWrite(t, storage, "/tree/a.txt", "a")
		mustWrite(t, storage, "/tree/sub/b.txt", "b")
		if err := storage.Remove(ctx, "/tree"); err != nil {
			t.Fatalf("Remove(dir): got error %v", err)
		}
		if _, err := storage.Stat(ctx, "/tree/sub/b.txt"); errors.GetCode(err) != errors.CodeNotFound {
			t.Errorf("Stat(removed child): got %v, want NotFound", err)
		}
	})

	run(t, config, "Manage", "RemoveNotExist", func(t *testing.T) {
		err := storage.Remove(ctx, "/never-existed")
		if got := errors.GetCode(err); got != errors.CodeNotFound {
			t.Errorf("Remove(missing): got code %q (%v), want %q", got, err, errors.CodeNotFound)
		}
	})
}
