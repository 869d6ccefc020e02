package fstest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tobimo/brackets/fs/core"
)

const (
	concurrentWorkers = 8
	concurrentRounds  = 20
)

// TestConcurrent runs writers, readers and listings against the storage at
// the same time. Run the suite with -race to catch unsynchronized backends.
func TestConcurrent(t *testing.T, storage core.Storage, config Config) {
	ctx := context.Background()

	run(t, config, "Concurrent", "WriteAndRead", func(t *testing.T) {
		if _, err := storage.MkdirAll(ctx, "/conc"); err != nil {
			t.Fatalf("MkdirAll(): setup failed: %v", err)
		}

		var wg sync.WaitGroup
		for w := 0; w < concurrentWorkers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				name := fmt.Sprintf("/conc/file-%d.txt", w)
				for i := 0; i < concurrentRounds; i++ {
					want := fmt.Sprintf("worker %d round %d", w, i)
					if _, err := storage.WriteFile(ctx, name, want, core.WriteOptions{}); err != nil {
						t.Errorf("WriteFile(%q): got error %v", name, err)
						return
					}
					got, _, err := storage.ReadFile(ctx, name, core.ReadOptions{})
					if err != nil || got != want {
						t.Errorf("ReadFile(%q): got (%q, %v), want (%q, nil)", name, got, err, want)
						return
					}
					if _, err := storage.Stat(ctx, name); err != nil {
						t.Errorf("Stat(%q): got error %v", name, err)
						return
					}
				}
			}(w)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < concurrentRounds; i++ {
				if _, err := storage.ReadDir(ctx, "/conc"); err != nil {
					t.Errorf("ReadDir(): got error %v", err)
					return
				}
			}
		}()
		wg.Wait()

		entries, err := storage.ReadDir(ctx, "/conc")
		if err != nil {
			t.Fatalf("ReadDir(): got error %v", err)
		}
		if len(entries) != concurrentWorkers {
			t.Errorf("ReadDir(): got %d entries, want %d", len(entries), concurrentWorkers)
		}
	})

	run(t, config, "Concurrent", "CreateAndRemove", func(t *testing.T) {
		var wg sync.WaitGroup
		for w := 0; w < concurrentWorkers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				dir := fmt.Sprintf("/churn-%d", w)
				for i := 0; i < concurrentRounds; i++ {
					if _, err := storage.MkdirAll(ctx, dir); err != nil {
						t.Errorf("MkdirAll(%q): got error %v", dir, err)
						return
					}
					if _, err := storage.WriteFile(ctx, dir+"/f.txt", "x", core.WriteOptions{}); err != nil {
						t.Errorf("WriteFile(): got error %v", err)
						return
					}
					if err := storage.Remove(ctx, dir); err != nil {
						t.Errorf("Remove(%q): got error %v", dir, err)
						return
					}
				}
			}(w)
		}
		wg.Wait()
	})
}
