// Package core defines the contract between file handles and the storage
// implementations underneath them.
//
// A Storage performs the real byte-level I/O against a backend (local disk,
// memory, S3) and reports a fresh Stat snapshot with every successful read
// or write. Handles cache that snapshot; they never cache contents.
//
// # Options
//
// ReadOptions and WriteOptions carry at most a text encoding. An empty
// ReadOptions.Encoding means "use the backend default" and must be left
// empty by callers that did not ask for a specific encoding, so that each
// backend can apply its own default:
//
//	text, stat, err := storage.ReadFile(ctx, "/notes.txt", core.ReadOptions{})
//	stat, err = storage.WriteFile(ctx, "/notes.txt", text, core.WriteOptions{Encoding: core.DefaultEncoding})
//
// # Errors
//
// Storage implementations report failures as coded errors from the errors
// package (errors.CodeNotFound, errors.CodeNotWritable, ...). Callers compare
// codes with errors.GetCode; they never need to know which backend produced
// the failure.
//
// # Provider Implementations
//
// This package contains only the contract. Implementations live in:
//
//   - github.com/tobimo/brackets/fs/billy - go-billy memory and local disk
//   - github.com/tobimo/brackets/fs/minio - MinIO / S3
package core
