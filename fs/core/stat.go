package core

import (
	"fmt"
	"time"
)

// Stat is a metadata snapshot describing an entry at the moment a backend
// last touched it. It is a cache, not a source of truth.
type Stat struct {
	// Size is the length of the contents in bytes. Zero for directories.
	Size int64

	// ModTime is the backend modification time.
	ModTime time.Time

	// Hash identifies the contents. Its format is backend specific: a
	// content digest for billy storage, an ETag for MinIO.
	Hash string

	// IsDir reports whether the snapshot describes a directory.
	IsDir bool
}

// Equal reports whether two snapshots describe the same state.
// Modification times are compared with time.Time.Equal so monotonic clock
// readings and locations do not matter.
func (s Stat) Equal(other Stat) bool {
	return s.Size == other.Size &&
		s.ModTime.Equal(other.ModTime) &&
		s.Hash == other.Hash &&
		s.IsDir == other.IsDir
}

// IsZero reports whether s is the zero snapshot.
func (s Stat) IsZero() bool {
	return s.Size == 0 && s.ModTime.IsZero() && s.Hash == "" && !s.IsDir
}

// String implements fmt.Stringer for log output.
func (s Stat) String() string {
	kind := "file"
	if s.IsDir {
		kind = "dir"
	}
	return fmt.Sprintf("%s{size=%d mtime=%s hash=%s}", kind, s.Size, s.ModTime.Format(time.RFC3339Nano), s.Hash)
}

// DirEntry is a single child returned by Storage.ReadDir.
type DirEntry struct {
	// Name is the base name of the child, without a trailing slash.
	Name string

	// Stat describes the child.
	Stat Stat
}
