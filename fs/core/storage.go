package core

import "context"

// DefaultEncoding is the text encoding used for writes when the caller does
// not name one.
const DefaultEncoding = "utf8"

// ReadOptions configures Storage.ReadFile.
type ReadOptions struct {
	// Encoding names the text encoding used to decode the contents.
	// Empty means the backend's own default applies.
	Encoding string
}

// WriteOptions configures Storage.WriteFile.
type WriteOptions struct {
	// Encoding names the text encoding used to encode data.
	// Empty means the backend's own default applies.
	Encoding string
}

// Storage is the contract every storage implementation satisfies.
//
// All paths are absolute and slash separated ("/dir/file.txt"); the root is
// "/". Implementations must be safe for concurrent use by multiple
// goroutines. Errors are coded errors from the errors package.
type Storage interface {
	// ReadFile reads the named file as text and returns its contents with
	// a fresh Stat.
	ReadFile(ctx context.Context, name string, opts ReadOptions) (string, Stat, error)

	// WriteFile writes data to the named file, creating or truncating it,
	// and returns the Stat of the file after the write.
	WriteFile(ctx context.Context, name string, data string, opts WriteOptions) (Stat, error)

	// Stat returns a fresh snapshot for the named file or directory.
	Stat(ctx context.Context, name string) (Stat, error)

	// ReadDir lists the immediate children of a directory sorted by name.
	ReadDir(ctx context.Context, name string) ([]DirEntry, error)

	// MkdirAll creates a directory along with any missing parents and
	// returns its Stat.
	MkdirAll(ctx context.Context, name string) (Stat, error)

	// Rename moves oldpath to newpath. Directories move with their
	// contents.
	Rename(ctx context.Context, oldpath, newpath string) error

	// Remove deletes a file, or a directory and everything below it.
	Remove(ctx context.Context, name string) error

	// Type returns the underlying storage type.
	Type() FSType
}
