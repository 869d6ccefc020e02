// Package filesystem presents files and directories as long-lived handles
// over a pluggable core.Storage.
//
// Handles are obtained from a FileSystem registry and are never
// constructed directly:
//
//	fsys := filesystem.New(billy.NewMemory())
//	file := fsys.FileForPath("/notes/todo.txt")
//	stat, err := file.Write(ctx, "buy milk")
//
// A handle caches the last known core.Stat of its path but never the
// content; every read goes to storage.
//
// # Write coordination
//
// Writes issued through a handle hold the registry's write barrier while
// they run. External change notifications (from a watcher, see
// HandleExternalChange) that arrive while the barrier is held are queued
// and delivered once the last write finishes. A change whose stat equals
// the handle's cached stat is the echo of our own write and is dropped,
// so listeners do not react to the application's own saves.
//
// # Concurrency
//
// All types are safe for concurrent use. Operations on one handle are not
// serialized: two concurrent writes both proceed and both hold the
// barrier. The async variants run storage I/O on a new goroutine and
// return a channel that is closed when the callback has run.
package filesystem
