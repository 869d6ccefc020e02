// Package billy provides go-billy-backed storage implementations of the
// core.Storage interface.
//
// This package wraps go-billy's osfs (local disk) and memfs (in-memory)
// filesystems. Every successful read or write returns a core.Stat whose
// Hash is the OCI digest (sha256) of the stored bytes, so two snapshots of
// the same contents compare equal regardless of when they were taken.
//
// Usage:
//
//	// Local disk, rooted at a project directory
//	storage := billy.NewLocal("/home/me/project")
//
//	// In-memory, for tests and scratch buffers
//	storage := billy.NewMemory(billy.WithDefaultEncoding("latin1"))
//
//	text, stat, err := storage.ReadFile(ctx, "/README.md", core.ReadOptions{})
//
// # Encodings
//
// Reads that do not name an encoding use the storage default, which is
// "utf8" unless WithDefaultEncoding says otherwise.
//
// # Thread Safety
//
// Storage instances (LocalFS, MemoryFS) are safe for concurrent use by
// multiple goroutines.
package billy
